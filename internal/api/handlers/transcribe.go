package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/heritagepool/poolops/internal/api"
)

// Transcriber converts raw audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type TranscribeHandler struct {
	transcriber Transcriber
}

func NewTranscribeHandler(transcriber Transcriber) *TranscribeHandler {
	return &TranscribeHandler{transcriber: transcriber}
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

// Transcribe accepts raw audio in the request body and returns the
// transcribed text. Content type is passed through to the speech service
// untouched.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	audio, err := io.ReadAll(r.Body)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read audio body")
		return
	}
	if len(audio) == 0 {
		api.Error(w, http.StatusBadRequest, "audio body is empty")
		return
	}

	text, err := h.transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TranscribeResponse{Text: text})
}
