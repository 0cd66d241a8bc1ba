// Package main provides the colang CLI, a spoken-English practice
// companion: it turns text into speech through the Doubao streaming TTS
// protocol, generates teaching replies, and keeps a local record of
// conversations and learned words.
//
// Usage:
//
//	colang [flags] <command> [args]
//
// Commands:
//
//	say    - synthesize text to an audio file
//	chat   - interactive practice loop (tutor reply + speech per turn)
//	words  - manage the learned vocabulary list
//
// Configuration comes from environment variables:
//
//	DOUBAO_APP_ID      - application id for the speech API
//	DOUBAO_ACCESS_KEY  - access key for the speech API
//	DOUBAO_API_KEY     - API key for the tutor chat model
//	COLANG_DATA_DIR    - local data directory (default ~/.colang)
package main

import (
	"fmt"
	"os"

	"github.com/colang/speech/cmd/colang/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
