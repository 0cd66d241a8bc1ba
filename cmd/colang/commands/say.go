package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/colang/speech/pkg/doubaotts"
)

var (
	sayInputFile  string
	sayOutputFile string
	sayText       string
	saySpeaker    string
	sayUseHTTP    bool
)

var okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// sayRequest is the yaml request file for one synthesis.
type sayRequest struct {
	Text  string                `yaml:"text"`
	Voice doubaotts.VoiceParams `yaml:",inline"`
}

var sayCmd = &cobra.Command{
	Use:   "say",
	Short: "Synthesize text to an audio file",
	Long: `Synthesize text to speech over the bidirectional streaming protocol.

Example request file (say.yaml):
  text: Practice makes perfect.
  speaker: zh_female_shuangkuaisisi_moon_bigtts
  sample_rate: 24000
  speed_rate: 0
  format: pcm

Examples:
  colang say -f say.yaml -o out.pcm
  colang say --text "Hello" --speaker zh_female_shuangkuaisisi_moon_bigtts -o out.pcm`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := loadSayRequest()
		if err != nil {
			return err
		}
		if sayOutputFile == "" {
			return fmt.Errorf("output file is required, use -o flag")
		}

		client, err := speechClient()
		if err != nil {
			return err
		}

		synthesize := client.Synthesize
		if sayUseHTTP {
			synthesize = client.SynthesizeHTTP
		}
		result, err := synthesize(cmd.Context(), req.Text, &req.Voice)
		if err != nil {
			return err
		}

		if err := os.WriteFile(sayOutputFile, result.Audio, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		fmt.Println(okStyle.Render(fmt.Sprintf("wrote %s: %d bytes, %s @ %d Hz, ~%d ms",
			sayOutputFile, len(result.Audio), result.Format, result.SampleRate, result.DurationMS)))
		return nil
	},
}

func init() {
	sayCmd.Flags().StringVarP(&sayInputFile, "file", "f", "", "yaml request file")
	sayCmd.Flags().StringVarP(&sayOutputFile, "output", "o", "", "output audio file")
	sayCmd.Flags().StringVar(&sayText, "text", "", "text to synthesize (instead of -f)")
	sayCmd.Flags().StringVar(&saySpeaker, "speaker", "", "speaker voice (with --text)")
	sayCmd.Flags().BoolVar(&sayUseHTTP, "http", false, "use the classic one-shot HTTP endpoint")
}

func loadSayRequest() (*sayRequest, error) {
	if sayInputFile != "" {
		data, err := os.ReadFile(sayInputFile)
		if err != nil {
			return nil, fmt.Errorf("read request file: %w", err)
		}
		var req sayRequest
		if err := yaml.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parse request file: %w", err)
		}
		return &req, nil
	}
	if sayText != "" {
		return &sayRequest{
			Text:  sayText,
			Voice: doubaotts.VoiceParams{Speaker: saySpeaker},
		}, nil
	}
	return nil, fmt.Errorf("either -f or --text is required")
}
