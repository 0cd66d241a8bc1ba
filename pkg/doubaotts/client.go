// Package doubaotts is a client for the Doubao (Volcengine) bidirectional
// streaming TTS protocol: a binary-framed, event-driven exchange over one
// WebSocket connection per synthesis call.
//
// Quick start:
//
//	client := doubaotts.NewClient("your_app_id",
//	    doubaotts.WithAccessKey("your_access_key"),
//	)
//
//	result, err := client.Synthesize(ctx, "Hello, world!", &doubaotts.VoiceParams{
//	    Speaker:    "zh_female_shuangkuaisisi_moon_bigtts",
//	    SampleRate: 24000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// result.Audio holds the full synthesized clip.
//
// Each Synthesize call opens a fresh connection, drives the handshake
// (StartConnection/ConnectionStarted, StartSession/SessionStarted),
// submits the text as one task, reassembles the audio-only response
// frames, and tears the session down. Failures surface as a single typed
// *Error; partial audio is never returned.
package doubaotts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://openspeech.bytedance.com"
	defaultWSURL   = "wss://openspeech.bytedance.com"
	defaultTimeout = 30 * time.Second

	// defaultPhaseTimeout bounds each wait for a single expected server
	// event.
	defaultPhaseTimeout = 10 * time.Second

	bidirectionPath = "/api/v3/tts/bidirection"
)

// ResourceBigTTS is the default X-Api-Resource-Id for BigModel TTS.
const ResourceBigTTS = "seed-tts-2.0"

// Client is a Doubao streaming TTS client. It holds read-only
// configuration; concurrent Synthesize calls each own their connection
// and session state.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	appID        string
	accessKey    string
	resourceID   string
	baseURL      string
	wsURL        string
	userID       string
	httpClient   *http.Client
	timeout      time.Duration
	phaseTimeout time.Duration
	dialer       Dialer
	logger       *slog.Logger
}

// Option represents configuration option function
type Option func(*clientConfig)

// NewClient creates a Doubao streaming TTS client.
//
// appID is the application ID from the Volcano Engine console.
func NewClient(appID string, opts ...Option) *Client {
	config := &clientConfig{
		appID:        appID,
		resourceID:   ResourceBigTTS,
		baseURL:      defaultBaseURL,
		wsURL:        defaultWSURL,
		userID:       "default_user",
		timeout:      defaultTimeout,
		phaseTimeout: defaultPhaseTimeout,
		dialer:       wsDialer{},
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.httpClient == nil {
		config.httpClient = &http.Client{Timeout: config.timeout}
	}
	if config.logger == nil {
		config.logger = slog.Default()
	}

	return &Client{config: config}
}

// WithAccessKey sets the access key used for the Authorization and
// X-Api-Access-Key headers.
//
// Note: the vendor Authorization format is "Bearer;{key}", not
// "Bearer {key}".
func WithAccessKey(key string) Option {
	return func(c *clientConfig) {
		c.accessKey = key
	}
}

// WithResourceID sets the X-Api-Resource-Id header value.
// Default: seed-tts-2.0.
func WithResourceID(resourceID string) Option {
	return func(c *clientConfig) {
		c.resourceID = resourceID
	}
}

// WithBaseURL sets the HTTP API base URL.
//
// Default: https://openspeech.bytedance.com
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithWebSocketURL sets the WebSocket URL.
//
// Default: wss://openspeech.bytedance.com
func WithWebSocketURL(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithUserID sets the user identifier sent in request payloads.
func WithUserID(userID string) Option {
	return func(c *clientConfig) {
		c.userID = userID
	}
}

// WithHTTPClient sets a custom HTTP client for the classic endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithPhaseTimeout bounds each wait for an expected server event.
// Default: 10s.
func WithPhaseTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.phaseTimeout = d
		}
	}
}

// WithDialer replaces the WebSocket dialer. Used by tests to inject a
// scripted transport.
func WithDialer(d Dialer) Option {
	return func(c *clientConfig) {
		c.dialer = d
	}
}

// WithLogger sets the logger for state transition and teardown events.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// wsHeaders builds the connect-time handshake headers. The websocket
// dialer adds the upgrade tokens and a fresh Sec-WebSocket-Key on top.
func (c *Client) wsHeaders(connectID string) http.Header {
	headers := http.Header{}
	headers.Set("X-Api-App-Id", c.config.appID)
	headers.Set("X-Api-App-Key", c.config.appID)
	if c.config.accessKey != "" {
		headers.Set("X-Api-Access-Key", c.config.accessKey)
		headers.Set("Authorization", "Bearer;"+c.config.accessKey)
	}
	headers.Set("X-Api-Resource-Id", c.config.resourceID)
	headers.Set("X-Api-Connect-Id", connectID)
	return headers
}

// generateID 生成连接/会话 ID
func generateID() string {
	return uuid.New().String()
}
