package doubaotts

import (
	"fmt"
	"log/slog"
)

// sessionState is one phase of the protocol exchange.
type sessionState int

const (
	stateIdle sessionState = iota
	stateConnectionPending
	stateConnectionReady
	stateSessionPending
	stateSessionReady
	stateStreaming
	stateSessionClosing
	stateClosed
	stateFailed
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnectionPending:
		return "connection_pending"
	case stateConnectionReady:
		return "connection_ready"
	case stateSessionPending:
		return "session_pending"
	case stateSessionReady:
		return "session_ready"
	case stateStreaming:
		return "streaming"
	case stateSessionClosing:
		return "session_closing"
	case stateClosed:
		return "closed"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// stateMachine validates the ordered protocol phases. Every accepted
// transition is logged; any rejected send or receive moves the machine to
// stateFailed, after which only teardown is attempted.
type stateMachine struct {
	state  sessionState
	logger *slog.Logger
}

func newStateMachine(logger *slog.Logger) *stateMachine {
	return &stateMachine{state: stateIdle, logger: logger}
}

func (m *stateMachine) current() sessionState {
	return m.state
}

// sent validates an outgoing event against the current state and
// advances. An out-of-order send fails the machine.
func (m *stateMachine) sent(event Event) error {
	var next sessionState

	switch {
	case m.state == stateIdle && event == EventStartConnection:
		next = stateConnectionPending
	case m.state == stateConnectionReady && event == EventStartSession:
		next = stateSessionPending
	case m.state == stateSessionReady && event == EventTaskRequest:
		next = stateStreaming
	case m.state == stateSessionClosing && event == EventFinishSession:
		next = stateSessionClosing
	case m.state == stateSessionClosing && event == EventFinishConnection:
		next = stateClosed
	default:
		m.fail("send", event)
		return protocolErr(nil, fmt.Sprintf("cannot send %s in state %s", event, m.state))
	}

	m.advance(next, event)
	return nil
}

// received validates an incoming frame against the current state and
// advances. Audio frames keep the machine in streaming.
func (m *stateMachine) received(f *frame) error {
	var next sessionState

	switch {
	case m.state == stateConnectionPending && f.event == EventConnectionStarted:
		next = stateConnectionReady
	case m.state == stateSessionPending && f.event == EventSessionStarted:
		next = stateSessionReady
	case m.state == stateStreaming && f.isAudio():
		next = stateStreaming
	case m.state == stateStreaming && f.event == EventSessionFinished:
		next = stateSessionClosing
	default:
		m.fail("receive", f.event)
		return protocolErr(nil, fmt.Sprintf("unexpected %s in state %s", f.event, m.state))
	}

	m.advance(next, f.event)
	return nil
}

func (m *stateMachine) advance(next sessionState, event Event) {
	if next != m.state {
		m.logger.Debug("session state transition",
			"from", m.state.String(), "to", next.String(), "event", event.String())
	}
	m.state = next
}

// fail moves to the terminal failed state.
func (m *stateMachine) fail(direction string, event Event) {
	m.logger.Debug("session state transition",
		"from", m.state.String(), "to", stateFailed.String(),
		"event", event.String(), "direction", direction)
	m.state = stateFailed
}

// failed reports whether the machine reached the failed terminal state.
func (m *stateMachine) failed() bool {
	return m.state == stateFailed
}
