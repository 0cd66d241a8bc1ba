// Package tutor produces teaching replies for a learner's utterance via
// an OpenAI-compatible chat completion API. It is the text-producer
// collaborator for speech synthesis: it hands over resolved text, never
// raw payloads.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL is the Volcengine Ark OpenAI-compatible endpoint.
	DefaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "doubao-seed-1-8-251228"

	// DefaultMaxHistory is the number of retained exchanges (one user
	// message plus one reply each).
	DefaultMaxHistory = 10
)

// DefaultSystemPrompt is the teaching persona.
const DefaultSystemPrompt = `You are a professional English teacher. Your task is to help users speak authentic English.

Guidelines:
1. Speak English as much as possible
2. Only switch to Chinese when the user explicitly says they cannot understand
3. Keep responses concise and natural for conversation
4. Gently correct mistakes by modeling the correct usage
5. Encourage the user and provide positive feedback`

// Config configures a Tutor.
type Config struct {
	// APIKey authenticates against the chat API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Default: DefaultBaseURL.
	BaseURL string

	// Model overrides the chat model. Default: DefaultModel.
	Model string

	// SystemPrompt overrides the persona. Default: DefaultSystemPrompt.
	SystemPrompt string

	// MaxHistory bounds retained exchanges. Default: DefaultMaxHistory.
	MaxHistory int
}

// Tutor holds one rolling conversation with the language model. Safe for
// concurrent use, though replies interleave into one shared history.
type Tutor struct {
	client       openai.Client
	model        string
	systemPrompt string
	maxHistory   int

	mu      sync.Mutex
	history []exchange
}

// exchange is one completed user/assistant round trip.
type exchange struct {
	user  string
	reply string
}

// New creates a Tutor.
func New(cfg Config) (*Tutor, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tutor: Config.APIKey is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}

	return &Tutor{
		client:       openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithBaseURL(baseURL)),
		model:        model,
		systemPrompt: prompt,
		maxHistory:   maxHistory,
	}, nil
}

// Reply sends the learner's utterance with the rolling history and
// returns the teaching response. The exchange is added to history only
// on success.
func (t *Tutor) Reply(ctx context.Context, userText string) (string, error) {
	if userText == "" {
		return "", errors.New("tutor: user text is empty")
	}

	t.mu.Lock()
	messages := buildMessages(t.systemPrompt, t.history, userText)
	t.mu.Unlock()

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(t.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("tutor: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("tutor: no choices in response")
	}
	reply := resp.Choices[0].Message.Content
	if reply == "" {
		return "", errors.New("tutor: empty reply content")
	}

	t.mu.Lock()
	t.history = append(t.history, exchange{user: userText, reply: reply})
	if len(t.history) > t.maxHistory {
		t.history = t.history[len(t.history)-t.maxHistory:]
	}
	t.mu.Unlock()

	return reply, nil
}

// Reset drops the rolling history, e.g. when a new learner session
// starts.
func (t *Tutor) Reset() {
	t.mu.Lock()
	t.history = nil
	t.mu.Unlock()
}

// buildMessages assembles the chat request: persona, bounded history,
// then the new utterance.
func buildMessages(systemPrompt string, history []exchange, userText string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)*2+2)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, ex := range history {
		messages = append(messages, openai.UserMessage(ex.user))
		messages = append(messages, openai.AssistantMessage(ex.reply))
	}
	messages = append(messages, openai.UserMessage(userText))
	return messages
}
