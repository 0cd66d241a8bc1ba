package doubaotts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

// Speech rate offset contract range.
const (
	SpeedRateMin = -50
	SpeedRateMax = 100
)

// VoiceParams selects the voice for one synthesis call.
type VoiceParams struct {
	// Speaker is the voice identifier (required).
	// Example: zh_female_shuangkuaisisi_moon_bigtts
	Speaker string `json:"speaker" yaml:"speaker"`

	// SampleRate is the target sample rate in Hz. Default: 24000.
	SampleRate int `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`

	// SpeedRate is the speech rate offset, [-50, 100]. Zero is the
	// voice's natural rate.
	SpeedRate int `json:"speed_rate,omitempty" yaml:"speed_rate,omitempty"`

	// Format is the audio format tag. Default: pcm.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

func (p *VoiceParams) validate() error {
	if p == nil {
		return invalidParamsErr("voice params are required")
	}
	if p.Speaker == "" {
		return invalidParamsErr("speaker is required")
	}
	if p.SpeedRate < SpeedRateMin || p.SpeedRate > SpeedRateMax {
		return invalidParamsErr(fmt.Sprintf("speed rate %d out of range [%d, %d]",
			p.SpeedRate, SpeedRateMin, SpeedRateMax))
	}
	if p.SampleRate < 0 {
		return invalidParamsErr(fmt.Sprintf("sample rate %d is negative", p.SampleRate))
	}
	return nil
}

func (p *VoiceParams) sampleRate() int {
	if p.SampleRate > 0 {
		return p.SampleRate
	}
	return 24000
}

func (p *VoiceParams) format() string {
	if p.Format != "" {
		return p.Format
	}
	return "pcm"
}

// SynthesizeResult is the finished audio of one synthesis call.
type SynthesizeResult struct {
	// Audio is the complete reassembled clip.
	Audio []byte `json:"-"`

	// Format is the audio format tag (e.g. pcm).
	Format string `json:"format"`

	// SampleRate is the sample rate in Hz.
	SampleRate int `json:"sample_rate"`

	// DurationMS is the clip duration in milliseconds. Computed from the
	// byte count for raw PCM; zero when the format makes it unknowable.
	DurationMS int `json:"duration_ms,omitempty"`
}

// Synthesize converts text to speech over the bidirectional streaming
// protocol. Each call opens its own connection and session; the client
// may be shared across concurrent calls.
//
// On failure the result is exactly one typed *Error and any partially
// received audio is discarded. Best-effort FinishSession and
// FinishConnection frames are sent on every failure path, including
// cancellation, so the server does not hold the session open.
func (c *Client) Synthesize(ctx context.Context, text string, params *VoiceParams) (*SynthesizeResult, error) {
	if text == "" {
		return nil, invalidParamsErr("text is empty")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	connectID := generateID()
	endpoint := c.config.wsURL + bidirectionPath

	channel, err := c.config.dialer.Dial(ctx, endpoint, c.wsHeaders(connectID))
	if err != nil {
		return nil, connectErr(err, "dial "+endpoint)
	}

	sessionID := generateID()
	logger := c.config.logger.With("session_id", sessionID, "connect_id", connectID)
	s := &synthSession{
		channel:   channel,
		machine:   newStateMachine(logger),
		config:    c.config,
		logger:    logger,
		sessionID: sessionID,
	}
	defer channel.Close()

	result, err := s.run(ctx, text, params)
	if err != nil {
		// Skip the extra teardown when the session already closed
		// normally (e.g. an empty result after a clean finish).
		if s.machine.current() != stateClosed {
			s.teardownBestEffort()
		}
		return nil, err
	}
	return result, nil
}

// synthSession owns the per-call transport, state machine and audio
// assembler. Never shared across calls.
type synthSession struct {
	channel   Channel
	machine   *stateMachine
	config    *clientConfig
	logger    *slog.Logger
	sessionID string
	assembler audioAssembler
}

func (s *synthSession) run(ctx context.Context, text string, params *VoiceParams) (*SynthesizeResult, error) {
	// Connection setup.
	if err := s.send(ctx, EventStartConnection, emptyJSON, KindConnect); err != nil {
		return nil, err
	}
	if err := s.await(ctx, stateConnectionReady); err != nil {
		return nil, err
	}

	// Session setup.
	if err := s.send(ctx, EventStartSession, s.sessionPayload(params), KindProtocol); err != nil {
		return nil, err
	}
	if err := s.await(ctx, stateSessionReady); err != nil {
		return nil, err
	}

	// Task submission.
	if err := s.send(ctx, EventTaskRequest, s.taskPayload(text, params), KindProtocol); err != nil {
		return nil, err
	}

	// Streaming: audio frames accumulate until SessionFinished.
	for s.machine.current() == stateStreaming {
		if err := s.receiveOne(ctx); err != nil {
			return nil, err
		}
	}

	// Teardown on the success path; failures here are logged but cannot
	// take back audio that is already complete.
	for _, event := range []Event{EventFinishSession, EventFinishConnection} {
		if err := s.machine.sent(event); err != nil {
			return nil, err
		}
		if err := s.channel.Send(ctx, encodeFrame(event, s.sessionID, emptyJSON)); err != nil {
			s.logger.Warn("teardown frame send failed", "event", event.String(), "error", err)
			break
		}
	}

	if s.assembler.empty() {
		return nil, emptyResultErr()
	}

	audio := s.assembler.finalize()
	return &SynthesizeResult{
		Audio:      audio,
		Format:     params.format(),
		SampleRate: params.sampleRate(),
		DurationMS: pcmDurationMS(params.format(), len(audio), params.sampleRate()),
	}, nil
}

var emptyJSON = []byte("{}")

// send encodes and writes one client frame, validating the transition
// first. errKind classifies a transport write failure for this phase.
func (s *synthSession) send(ctx context.Context, event Event, payload []byte, errKind ErrorKind) error {
	if err := s.machine.sent(event); err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.config.phaseTimeout)
	defer cancel()
	if err := s.channel.Send(sendCtx, encodeFrame(event, s.sessionID, payload)); err != nil {
		s.machine.fail("send", event)
		if isTimeout(err) {
			return timeoutErr("send " + event.String())
		}
		return &Error{Kind: errKind, Message: "send " + event.String(), Err: err}
	}
	return nil
}

// await receives frames until the machine reaches want. Expectation
// checking is the machine's job; await only bounds the wait and decodes.
func (s *synthSession) await(ctx context.Context, want sessionState) error {
	for s.machine.current() != want {
		if err := s.receiveOne(ctx); err != nil {
			return err
		}
	}
	return nil
}

// receiveOne reads, decodes and applies a single frame.
func (s *synthSession) receiveOne(ctx context.Context) error {
	phase := s.machine.current().String()

	recvCtx, cancel := context.WithTimeout(ctx, s.config.phaseTimeout)
	raw, err := s.channel.Receive(recvCtx)
	cancel()
	if err != nil {
		s.machine.fail("receive", 0)
		switch {
		case isTimeout(err):
			return timeoutErr(phase)
		case errors.Is(err, io.EOF):
			return protocolErr(err, "stream closed in state "+phase)
		default:
			return protocolErr(err, "receive in state "+phase)
		}
	}

	f, err := decodeFrame(raw)
	if err != nil {
		s.machine.fail("decode", 0)
		return protocolErr(err, "decode frame in state "+phase)
	}
	if f.unknownEvent {
		// Unknown codes decode cleanly for forward compatibility, but an
		// event the session cannot interpret is still out of order here.
		s.machine.fail("receive", f.event)
		return protocolErr(nil, fmt.Sprintf("unknown event %d in state %s", int32(f.event), phase))
	}

	if err := s.machine.received(f); err != nil {
		return err
	}

	if f.isAudio() {
		audio, err := decodeAudioPayload(raw)
		if err != nil {
			s.machine.fail("decode", f.event)
			return protocolErr(err, "decode audio payload")
		}
		if err := s.assembler.append(audio); err != nil {
			return protocolErr(err, "append audio chunk")
		}
	}
	return nil
}

// teardownBestEffort releases server-side session state after a failure
// or cancellation. Runs on its own short deadline because the caller's
// context may already be done; outcomes are logged, never returned.
func (s *synthSession) teardownBestEffort() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, event := range []Event{EventFinishSession, EventFinishConnection} {
		if err := s.channel.Send(ctx, encodeFrame(event, s.sessionID, emptyJSON)); err != nil {
			s.logger.Warn("best-effort teardown send failed",
				"event", event.String(), "error", err)
			return
		}
	}
	s.logger.Debug("best-effort teardown sent")
}

func (s *synthSession) sessionPayload(params *VoiceParams) []byte {
	return mustJSON(map[string]any{
		"user":      map[string]any{"uid": s.config.userID},
		"event":     int(EventStartSession),
		"namespace": "BidirectionalTTS",
		"req_params": map[string]any{
			"speaker": params.Speaker,
			"audio_params": map[string]any{
				"format":      params.format(),
				"sample_rate": params.sampleRate(),
				"speech_rate": params.SpeedRate,
			},
		},
	})
}

func (s *synthSession) taskPayload(text string, params *VoiceParams) []byte {
	return mustJSON(map[string]any{
		"user":      map[string]any{"uid": s.config.userID},
		"event":     int(EventTaskRequest),
		"namespace": "BidirectionalTTS",
		"req_params": map[string]any{
			"text":    text,
			"speaker": params.Speaker,
		},
	})
}

// mustJSON marshals request payloads built from map literals; these
// cannot fail at runtime.
func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// isTimeout reports whether err is a deadline expiry, from either the
// context or the connection read/write deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// pcmDurationMS computes the clip duration for 16-bit mono PCM.
func pcmDurationMS(format string, byteLen, sampleRate int) int {
	if format != "pcm" || sampleRate <= 0 {
		return 0
	}
	return byteLen * 1000 / (sampleRate * 2)
}
