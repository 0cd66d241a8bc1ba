package doubaotts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ================== 协议常量 ==================

const (
	// protocolVersion is version 1 with a 4-byte header (high nibble
	// version, low nibble header size in 4-byte units).
	protocolVersion byte = 0x11

	// Message type byte: high nibble message type, low nibble the
	// with-event flag (0b0100).
	msgTypeFullClient  byte = 0x14 // full client request, with event
	msgTypeFullServer  byte = 0x94 // full server response, with event
	msgTypeAudioOnly   byte = 0xB4 // audio-only server response, with event

	// Serialization/compression byte: high nibble serialization, low
	// nibble compression.
	serializationJSON byte = 0x10
	serializationRaw  byte = 0x00
	compressionNone   byte = 0x00
)

// Event is a protocol event code carried in every frame.
type Event int32

// Protocol event codes.
const (
	EventStartConnection   Event = 1
	EventFinishConnection  Event = 2
	EventConnectionStarted Event = 50
	EventStartSession      Event = 100
	EventFinishSession     Event = 102
	EventSessionStarted    Event = 150
	EventSessionFinished   Event = 152
	EventTaskRequest       Event = 200
	EventTTSResponse       Event = 352
)

// String returns the event name for logging.
func (e Event) String() string {
	switch e {
	case EventStartConnection:
		return "StartConnection"
	case EventFinishConnection:
		return "FinishConnection"
	case EventConnectionStarted:
		return "ConnectionStarted"
	case EventStartSession:
		return "StartSession"
	case EventFinishSession:
		return "FinishSession"
	case EventSessionStarted:
		return "SessionStarted"
	case EventSessionFinished:
		return "SessionFinished"
	case EventTaskRequest:
		return "TaskRequest"
	case EventTTSResponse:
		return "TTSResponse"
	default:
		return fmt.Sprintf("Event(%d)", int32(e))
	}
}

// known reports whether e is part of the closed event enumeration.
func (e Event) known() bool {
	switch e {
	case EventStartConnection, EventFinishConnection, EventConnectionStarted,
		EventStartSession, EventFinishSession, EventSessionStarted,
		EventSessionFinished, EventTaskRequest, EventTTSResponse:
		return true
	}
	return false
}

// sessionScoped reports whether frames carrying e include a session id.
// Connection-level events (StartConnection, FinishConnection,
// ConnectionStarted) do not.
func (e Event) sessionScoped() bool {
	switch e {
	case EventStartConnection, EventFinishConnection, EventConnectionStarted:
		return false
	}
	return e.known()
}

// Codec sentinel errors.
var (
	// ErrTruncated is returned when a frame is shorter than its declared
	// or minimum layout requires.
	ErrTruncated = errors.New("doubaotts: truncated frame")

	// ErrInvalidHeader is returned when the version or message type byte
	// is outside the supported set.
	ErrInvalidHeader = errors.New("doubaotts: invalid frame header")
)

// frame is one decoded wire message.
type frame struct {
	msgType       byte
	serialization byte
	event         Event
	unknownEvent  bool
	sessionID     string
	payload       []byte
}

// isAudio reports whether the frame is an audio-only server response.
func (f *frame) isAudio() bool {
	return f.msgType == msgTypeAudioOnly
}

// encodeFrame builds a well-formed client frame: 4-byte header, big-endian
// event, optional length-prefixed session id, length-prefixed payload.
// Deterministic and pure.
func encodeFrame(event Event, sessionID string, payload []byte) []byte {
	buf := new(bytes.Buffer)

	buf.WriteByte(protocolVersion)
	buf.WriteByte(msgTypeFullClient)
	buf.WriteByte(serializationJSON | compressionNone)
	buf.WriteByte(0x00) // reserved

	binary.Write(buf, binary.BigEndian, int32(event))

	if event.sessionScoped() {
		binary.Write(buf, binary.BigEndian, uint32(len(sessionID)))
		buf.WriteString(sessionID)
	}

	binary.Write(buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)

	return buf.Bytes()
}

// decodeFrame parses one wire message. Inputs shorter than header+event
// fail with ErrTruncated; unsupported version/type bytes fail with
// ErrInvalidHeader. Declared lengths are bounds-checked against the
// remaining buffer, so malformed input can never cause an out-of-range
// read. Unknown event codes decode successfully with unknownEvent set;
// their field layout past the event cannot be inferred, so the remainder
// is kept as opaque payload.
func decodeFrame(data []byte) (*frame, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	if data[0] != protocolVersion {
		return nil, fmt.Errorf("%w: version byte 0x%02x", ErrInvalidHeader, data[0])
	}
	switch data[1] {
	case msgTypeFullClient, msgTypeFullServer, msgTypeAudioOnly:
	default:
		return nil, fmt.Errorf("%w: message type 0x%02x", ErrInvalidHeader, data[1])
	}

	f := &frame{
		msgType:       data[1],
		serialization: data[2] & 0xf0,
		event:         Event(int32(binary.BigEndian.Uint32(data[4:8]))),
	}

	rest := data[8:]

	if !f.event.known() {
		f.unknownEvent = true
		f.payload = rest
		return f, nil
	}

	if f.event.sessionScoped() {
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: session id length field", ErrTruncated)
		}
		idLen := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint32(len(rest)) < idLen {
			return nil, fmt.Errorf("%w: session id %d bytes, %d remaining", ErrTruncated, idLen, len(rest))
		}
		f.sessionID = string(rest[:idLen])
		rest = rest[idLen:]
	}

	if len(rest) < 4 {
		return nil, fmt.Errorf("%w: payload length field", ErrTruncated)
	}
	payloadLen := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	if uint32(len(rest)) < payloadLen {
		return nil, fmt.Errorf("%w: payload %d bytes, %d remaining", ErrTruncated, payloadLen, len(rest))
	}
	f.payload = rest[:payloadLen]

	return f, nil
}

// decodeAudioPayload extracts the raw audio suffix of an AudioOnly
// response frame. The audio starts at header(4) + event(4) + session id
// length field(4) + session id bytes + payload length field(4).
func decodeAudioPayload(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if data[1] != msgTypeAudioOnly {
		return nil, fmt.Errorf("%w: message type 0x%02x is not audio-only", ErrInvalidHeader, data[1])
	}

	if len(data) < 12 {
		return nil, fmt.Errorf("%w: session id length field", ErrTruncated)
	}
	idLen := binary.BigEndian.Uint32(data[8:12])

	offset := uint64(12) + uint64(idLen) + 4
	if uint64(len(data)) < offset {
		return nil, fmt.Errorf("%w: audio offset %d, %d bytes", ErrTruncated, offset, len(data))
	}
	return data[offset:], nil
}
