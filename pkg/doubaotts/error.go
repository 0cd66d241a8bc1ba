package doubaotts

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a synthesis failure.
type ErrorKind int

const (
	// KindConnect is a handshake or transport setup failure. Fatal, no
	// internal retry; retry policy belongs to the caller.
	KindConnect ErrorKind = iota + 1

	// KindProtocol is a malformed frame, out-of-order event, truncated
	// payload, or transport failure mid-session. Fatal to the session.
	KindProtocol

	// KindTimeout is a phase deadline exceeded while waiting on the
	// server.
	KindTimeout

	// KindEmptyResult is a session that closed cleanly with zero audio
	// bytes. Surfaced explicitly, never treated as success.
	KindEmptyResult

	// KindInvalidParams is caller-supplied voice parameters outside the
	// contract range. Rejected before any network activity.
	KindInvalidParams
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindProtocol:
		return "protocol"
	case KindTimeout:
		return "timeout"
	case KindEmptyResult:
		return "empty_result"
	case KindInvalidParams:
		return "invalid_params"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed synthesis failure. Every failure from Synthesize
// surfaces as exactly one *Error.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message describes the failure.
	Message string

	// Code is the vendor business error code, when the remote reported
	// one.
	Code int

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("doubaotts: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("doubaotts: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConnect 是否为连接建立失败
func (e *Error) IsConnect() bool { return e.Kind == KindConnect }

// IsProtocol 是否为协议错误
func (e *Error) IsProtocol() bool { return e.Kind == KindProtocol }

// IsTimeout 是否为阶段超时
func (e *Error) IsTimeout() bool { return e.Kind == KindTimeout }

// IsEmptyResult 是否为空结果
func (e *Error) IsEmptyResult() bool { return e.Kind == KindEmptyResult }

// IsInvalidParams 是否为参数错误
func (e *Error) IsInvalidParams() bool { return e.Kind == KindInvalidParams }

// AsError 尝试将 error 转换为 *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func connectErr(err error, message string) *Error {
	return &Error{Kind: KindConnect, Message: message, Err: err}
}

func protocolErr(err error, message string) *Error {
	return &Error{Kind: KindProtocol, Message: message, Err: err}
}

func timeoutErr(phase string) *Error {
	return &Error{Kind: KindTimeout, Message: "deadline exceeded waiting for " + phase}
}

func emptyResultErr() *Error {
	return &Error{Kind: KindEmptyResult, Message: "session finished with zero audio bytes"}
}

func invalidParamsErr(message string) *Error {
	return &Error{Kind: KindInvalidParams, Message: message}
}

// wrapError 包装错误
func wrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
