package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/colang/speech/pkg/history"
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Manage the learned vocabulary list",
}

var wordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned words",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		words, err := store.Words(cmd.Context())
		if err != nil {
			return err
		}
		if len(words) == 0 {
			fmt.Println("no words recorded yet")
			return nil
		}
		for _, w := range words {
			if w.Note != "" {
				fmt.Printf("%s\t%s\n", w.Word, w.Note)
			} else {
				fmt.Println(w.Word)
			}
		}
		return nil
	},
}

var wordsAddCmd = &cobra.Command{
	Use:   "add <word> [note...]",
	Short: "Record a learned word",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		note := strings.Join(args[1:], " ")
		if err := store.AddWord(cmd.Context(), args[0], note); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("recorded " + args[0]))
		return nil
	},
}

func init() {
	wordsCmd.AddCommand(wordsListCmd)
	wordsCmd.AddCommand(wordsAddCmd)
}

func openHistoryStore() (*history.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return history.Open(history.Options{Dir: filepath.Join(dir, "history")})
}
