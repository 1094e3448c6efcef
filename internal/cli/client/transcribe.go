package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// TranscribeResponse represents the transcribe API response.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// TranscribeCmd creates the transcribe command.
func TranscribeCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a voice note",
		Long:  "Uploads an audio file and prints the transcribed text, ready to pass to search.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(args[0], contentType)
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "audio/m4a", "Audio content type")

	return cmd
}

func runTranscribe(path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.PostRaw("/api/ai/transcribe", file, contentType)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	var transcribeResp TranscribeResponse
	if err := json.Unmarshal(resp.Data, &transcribeResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Println(transcribeResp.Text)
	return nil
}
