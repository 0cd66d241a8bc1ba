package doubaotts

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateMachine_HappyPath(t *testing.T) {
	m := newStateMachine(testLogger())

	steps := []struct {
		send  bool
		event Event
		audio bool
		want  sessionState
	}{
		{true, EventStartConnection, false, stateConnectionPending},
		{false, EventConnectionStarted, false, stateConnectionReady},
		{true, EventStartSession, false, stateSessionPending},
		{false, EventSessionStarted, false, stateSessionReady},
		{true, EventTaskRequest, false, stateStreaming},
		{false, EventTTSResponse, true, stateStreaming},
		{false, EventTTSResponse, true, stateStreaming},
		{false, EventSessionFinished, false, stateSessionClosing},
		{true, EventFinishSession, false, stateSessionClosing},
		{true, EventFinishConnection, false, stateClosed},
	}

	for i, step := range steps {
		var err error
		if step.send {
			err = m.sent(step.event)
		} else {
			msgType := msgTypeFullServer
			if step.audio {
				msgType = msgTypeAudioOnly
			}
			err = m.received(&frame{msgType: msgType, event: step.event})
		}
		if err != nil {
			t.Fatalf("step %d (%v): %v", i, step.event, err)
		}
		if m.current() != step.want {
			t.Fatalf("step %d (%v): state = %v, want %v", i, step.event, m.current(), step.want)
		}
	}
}

func TestStateMachine_RejectsStartSessionBeforeConnectionStarted(t *testing.T) {
	m := newStateMachine(testLogger())

	if err := m.sent(EventStartConnection); err != nil {
		t.Fatalf("StartConnection: %v", err)
	}

	// ConnectionStarted has not arrived; StartSession must be rejected.
	err := m.sent(EventStartSession)
	if err == nil {
		t.Fatal("expected error sending StartSession in connection_pending")
	}
	e, ok := AsError(err)
	if !ok || e.Kind != KindProtocol {
		t.Errorf("error = %v, want protocol kind", err)
	}
	if !m.failed() {
		t.Errorf("state = %v, want failed", m.current())
	}

	// A failed machine accepts no further protocol sends.
	if err := m.sent(EventTaskRequest); err == nil {
		t.Error("expected error sending after failure")
	}
}

func TestStateMachine_RejectsUnexpectedReceives(t *testing.T) {
	cases := []struct {
		name  string
		setup []Event // sends/receives alternating via happy path prefix
		frame *frame
	}{
		{
			"audio before streaming",
			[]Event{EventStartConnection},
			&frame{msgType: msgTypeAudioOnly, event: EventTTSResponse},
		},
		{
			"session finished before task",
			[]Event{EventStartConnection, EventConnectionStarted},
			&frame{msgType: msgTypeFullServer, event: EventSessionFinished},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newStateMachine(testLogger())
			for _, ev := range tc.setup {
				switch ev {
				case EventStartConnection, EventStartSession, EventTaskRequest:
					if err := m.sent(ev); err != nil {
						t.Fatalf("setup %v: %v", ev, err)
					}
				default:
					if err := m.received(&frame{msgType: msgTypeFullServer, event: ev}); err != nil {
						t.Fatalf("setup %v: %v", ev, err)
					}
				}
			}
			if err := m.received(tc.frame); err == nil {
				t.Error("expected rejection")
			}
			if !m.failed() {
				t.Errorf("state = %v, want failed", m.current())
			}
		})
	}
}

func TestStateMachine_FullServerResponseDuringStreamingFails(t *testing.T) {
	m := newStateMachine(testLogger())
	m.state = stateStreaming

	// A FullServerResponse carrying TTSResponse is not an audio frame;
	// it must fail the session rather than be silently dropped.
	err := m.received(&frame{msgType: msgTypeFullServer, event: EventTTSResponse})
	if err == nil {
		t.Fatal("expected rejection of full server response during streaming")
	}
	if !m.failed() {
		t.Errorf("state = %v, want failed", m.current())
	}
}
