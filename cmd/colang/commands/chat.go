package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/colang/speech/pkg/doubaotts"
	"github.com/colang/speech/pkg/history"
	"github.com/colang/speech/pkg/tutor"
)

var (
	chatSpeaker string
	chatOutDir  string
	chatNoVoice bool
)

var (
	tutorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive English practice loop",
	Long: `Interactive practice loop: each line you type gets a teaching reply,
the reply is synthesized to speech, and both sides of the conversation
are recorded locally.

Type an empty line or Ctrl-D to finish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey := os.Getenv("DOUBAO_API_KEY")
		if apiKey == "" {
			return errors.New("DOUBAO_API_KEY environment variable not set")
		}
		teacher, err := tutor.New(tutor.Config{APIKey: apiKey})
		if err != nil {
			return err
		}

		client, err := speechClient()
		if err != nil && !chatNoVoice {
			return err
		}

		dir, err := dataDir()
		if err != nil {
			return err
		}
		store, err := history.Open(history.Options{Dir: filepath.Join(dir, "history")})
		if err != nil {
			return err
		}
		defer store.Close()

		outDir := chatOutDir
		if outDir == "" {
			outDir = filepath.Join(dir, "audio")
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}

		sessionID := uuid.New().String()
		voice := &doubaotts.VoiceParams{Speaker: chatSpeaker}
		ctx := cmd.Context()

		fmt.Println(dimStyle.Render("session " + sessionID + " (type a line to practice, empty line to quit)"))

		scanner := bufio.NewScanner(os.Stdin)
		for turn := 1; ; turn++ {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				break
			}

			if err := store.AppendTurn(ctx, sessionID, "user", line); err != nil {
				return err
			}

			reply, err := teacher.Reply(ctx, line)
			if err != nil {
				return err
			}
			fmt.Println(tutorStyle.Render("teacher:"), reply)

			if err := store.AppendTurn(ctx, sessionID, "ai", reply); err != nil {
				return err
			}

			if chatNoVoice {
				continue
			}
			result, err := client.Synthesize(ctx, reply, voice)
			if err != nil {
				// A failed synthesis should not end the practice session.
				fmt.Println(dimStyle.Render("(speech unavailable: " + err.Error() + ")"))
				continue
			}
			audioPath := filepath.Join(outDir, fmt.Sprintf("%s-%03d.%s", sessionID, turn, result.Format))
			if err := os.WriteFile(audioPath, result.Audio, 0o644); err != nil {
				return err
			}
			fmt.Println(dimStyle.Render(fmt.Sprintf("(audio: %s, ~%d ms)", audioPath, result.DurationMS)))
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSpeaker, "speaker", "zh_female_shuangkuaisisi_moon_bigtts", "speaker voice for replies")
	chatCmd.Flags().StringVar(&chatOutDir, "out-dir", "", "directory for per-turn audio files")
	chatCmd.Flags().BoolVar(&chatNoVoice, "no-voice", false, "skip speech synthesis")
}
