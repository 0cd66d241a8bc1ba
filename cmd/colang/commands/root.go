package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/colang/speech/pkg/doubaotts"
)

var rootCmd = &cobra.Command{
	Use:           "colang",
	Short:         "Spoken-English practice companion",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

var flagVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(wordsCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// speechClient builds the TTS client from environment credentials.
func speechClient() (*doubaotts.Client, error) {
	appID := os.Getenv("DOUBAO_APP_ID")
	if appID == "" {
		return nil, errors.New("DOUBAO_APP_ID environment variable not set")
	}
	accessKey := os.Getenv("DOUBAO_ACCESS_KEY")
	if accessKey == "" {
		return nil, errors.New("DOUBAO_ACCESS_KEY environment variable not set")
	}

	return doubaotts.NewClient(appID,
		doubaotts.WithAccessKey(accessKey),
		doubaotts.WithLogger(slog.Default()),
	), nil
}

// dataDir returns the local data directory, creating it if needed.
func dataDir() (string, error) {
	dir := os.Getenv("COLANG_DATA_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".colang")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
