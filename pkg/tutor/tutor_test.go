package tutor

import (
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	tu, err := New(Config{APIKey: "key"})
	if err != nil {
		t.Fatal(err)
	}
	if tu.model != DefaultModel {
		t.Errorf("model = %q, want %q", tu.model, DefaultModel)
	}
	if tu.systemPrompt != DefaultSystemPrompt {
		t.Error("system prompt not defaulted")
	}
	if tu.maxHistory != DefaultMaxHistory {
		t.Errorf("max history = %d, want %d", tu.maxHistory, DefaultMaxHistory)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestBuildMessages(t *testing.T) {
	history := []exchange{
		{user: "hello", reply: "Hello! How are you today?"},
		{user: "i am fine", reply: "Great! A more natural phrasing is \"I'm doing well.\""},
	}

	messages := buildMessages("persona", history, "what did I say wrong?")

	// persona + 2 exchanges + new utterance
	if len(messages) != 6 {
		t.Fatalf("got %d messages, want 6", len(messages))
	}
	if messages[0].OfSystem == nil {
		t.Error("first message should be the system persona")
	}
	if messages[1].OfUser == nil || messages[2].OfAssistant == nil {
		t.Error("history should alternate user/assistant")
	}
	if messages[5].OfUser == nil {
		t.Error("last message should be the new user utterance")
	}
}

func TestBuildMessages_NoHistory(t *testing.T) {
	messages := buildMessages("persona", nil, "hi")
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
}
