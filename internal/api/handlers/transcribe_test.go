package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heritagepool/poolops/internal/domain"
)

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

type MockDescriber struct {
	mock.Mock
}

func (m *MockDescriber) DescribeQuote(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func TestTranscribeHandler_Success(t *testing.T) {
	mockSvc := new(MockTranscriber)
	handler := NewTranscribeHandler(mockSvc)

	audio := []byte("fake-audio-bytes")
	mockSvc.On("Transcribe", mock.Anything, audio).Return("pump is leaking near the filter", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/transcribe", bytes.NewReader(audio))
	req.Header.Set("Content-Type", "audio/m4a")
	w := httptest.NewRecorder()

	handler.Transcribe(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "pump is leaking near the filter", data["text"])
	mockSvc.AssertExpectations(t)
}

func TestTranscribeHandler_EmptyBody(t *testing.T) {
	handler := NewTranscribeHandler(new(MockTranscriber))

	req := httptest.NewRequest(http.MethodPost, "/api/ai/transcribe", bytes.NewReader(nil))
	w := httptest.NewRecorder()

	handler.Transcribe(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscribeHandler_ServiceError(t *testing.T) {
	mockSvc := new(MockTranscriber)
	handler := NewTranscribeHandler(mockSvc)

	mockSvc.On("Transcribe", mock.Anything, mock.Anything).Return("",
		domain.NewDomainErrorWithCause(domain.ErrCodeOracleBusy, "speech service is busy", domain.ErrOracleBusy))

	req := httptest.NewRequest(http.MethodPost, "/api/ai/transcribe", bytes.NewReader([]byte("audio")))
	w := httptest.NewRecorder()

	handler.Transcribe(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDescribeHandler_Success(t *testing.T) {
	mockSvc := new(MockDescriber)
	handler := NewDescribeHandler(mockSvc)

	mockSvc.On("DescribeQuote", mock.Anything, "replace pump seal").Return(
		"Replace the worn pump shaft seal to stop the leak at the motor housing.", nil)

	body := `{"text":"replace pump seal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/describe", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Describe(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Contains(t, data["description"], "pump shaft seal")
	mockSvc.AssertExpectations(t)
}

func TestDescribeHandler_MissingText(t *testing.T) {
	handler := NewDescribeHandler(new(MockDescriber))

	req := httptest.NewRequest(http.MethodPost, "/api/ai/describe", bytes.NewReader([]byte(`{"text":"  "}`)))
	w := httptest.NewRecorder()

	handler.Describe(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
