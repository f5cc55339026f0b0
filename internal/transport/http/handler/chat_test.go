package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spokesbot/internal/app"
	"spokesbot/internal/classify"
	"spokesbot/internal/index"
	"spokesbot/internal/model"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0}, nil
}

type stubGenerator struct {
	answer string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.answer, nil
}

func newTestHandler(embedErr error) *ChatHandler {
	classifier := classify.NewClassifier(classify.Rules{
		Labels: []classify.LabelRule{
			{Label: model.LabelPlatform, Keywords: []string{"policy"}},
		},
	})
	answers := app.NewAnswerService(app.AnswerDeps{
		Classifier: classifier,
		Holder:     index.NewHolder(),
		Embedder:   &stubEmbedder{err: embedErr},
		Generator:  &stubGenerator{answer: "We support it."},
		Prompts: app.PromptConfig{
			PartyName:      "Test Party",
			RefusalMessage: "Out of scope.",
		},
		TopK:          3,
		CollabTimeout: time.Second,
	})
	return NewChatHandler(answers, "Try again later.")
}

func doChat(h *ChatHandler, path, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/chat", h.Chat)
	r.POST("/chat/debug", h.ChatDebug)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatEmptyQuestion(t *testing.T) {
	w := doChat(newTestHandler(nil), "/chat", `{"question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatQuestionTooLong(t *testing.T) {
	long := strings.Repeat("a", 1001)
	w := doChat(newTestHandler(nil), "/chat", `{"question":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatOutOfScopeRefusal(t *testing.T) {
	w := doChat(newTestHandler(nil), "/chat", `{"question":"what is the weather"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Out of scope.")
	assert.Contains(t, w.Body.String(), `"out_of_scope":true`)
}

func TestChatEmbeddingFailureMapsToUnavailable(t *testing.T) {
	w := doChat(newTestHandler(errors.New("connection refused")), "/chat", `{"question":"what is your policy"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Try again later.")
}

func TestChatStripsDebugFields(t *testing.T) {
	w := doChat(newTestHandler(nil), "/chat", `{"question":"what is your policy"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"prompt"`)
}

func TestChatDebugIncludesPrompt(t *testing.T) {
	w := doChat(newTestHandler(nil), "/chat/debug", `{"question":"what is your policy"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"prompt"`)
}
