package handler

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"spokesbot/internal/app"
	"spokesbot/internal/transport/http/response"
)

const maxQuestionRunes = 1000

type ChatHandler struct {
	answers     *app.AnswerService
	unavailable string
}

func NewChatHandler(answers *app.AnswerService, unavailableMessage string) *ChatHandler {
	return &ChatHandler{
		answers:     answers,
		unavailable: unavailableMessage,
	}
}

type chatRequest struct {
	Question string `json:"question"`
}

// Chat answers a single question. Debug fields are stripped; use the debug
// endpoint to inspect retrieval.
func (h *ChatHandler) Chat(c *gin.Context) {
	result, ok := h.answer(c)
	if !ok {
		return
	}
	result.Chunks = nil
	result.Prompt = ""
	response.OK(c, result)
}

// ChatDebug answers a question and includes the retrieved chunks and the
// assembled prompt in the response.
func (h *ChatHandler) ChatDebug(c *gin.Context) {
	result, ok := h.answer(c)
	if !ok {
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) answer(c *gin.Context) (*app.AnswerResult, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return nil, false
	}
	if utf8.RuneCountInString(req.Question) > maxQuestionRunes {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question too long")
		return nil, false
	}

	result, err := h.answers.Answer(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question must not be empty")
		case errors.Is(err, app.ErrEmbeddingUnavailable), errors.Is(err, app.ErrGenerationFailed):
			response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, h.unavailable)
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal error")
		}
		return nil, false
	}
	return result, true
}
