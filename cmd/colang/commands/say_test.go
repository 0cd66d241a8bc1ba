package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSayRequest_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "say.yaml")
	content := `text: Practice makes perfect.
speaker: zh_female_shuangkuaisisi_moon_bigtts
sample_rate: 16000
speed_rate: 20
format: pcm
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sayInputFile = path
	defer func() { sayInputFile = "" }()

	req, err := loadSayRequest()
	if err != nil {
		t.Fatalf("loadSayRequest: %v", err)
	}
	if req.Text != "Practice makes perfect." {
		t.Errorf("text = %q", req.Text)
	}
	if req.Voice.Speaker != "zh_female_shuangkuaisisi_moon_bigtts" {
		t.Errorf("speaker = %q", req.Voice.Speaker)
	}
	if req.Voice.SampleRate != 16000 {
		t.Errorf("sample rate = %d", req.Voice.SampleRate)
	}
	if req.Voice.SpeedRate != 20 {
		t.Errorf("speed rate = %d", req.Voice.SpeedRate)
	}
}

func TestLoadSayRequest_FromFlags(t *testing.T) {
	sayText = "hello"
	saySpeaker = "voice-x"
	defer func() { sayText, saySpeaker = "", "" }()

	req, err := loadSayRequest()
	if err != nil {
		t.Fatalf("loadSayRequest: %v", err)
	}
	if req.Text != "hello" || req.Voice.Speaker != "voice-x" {
		t.Errorf("req = %+v", req)
	}
}

func TestLoadSayRequest_RequiresInput(t *testing.T) {
	if _, err := loadSayRequest(); err == nil {
		t.Error("expected error with no input")
	}
}
