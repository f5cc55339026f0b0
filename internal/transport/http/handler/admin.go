package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spokesbot/internal/app"
	"spokesbot/internal/transport/http/response"
)

type AdminHandler struct {
	ingest *app.IngestService
}

func NewAdminHandler(ingest *app.IngestService) *AdminHandler {
	return &AdminHandler{ingest: ingest}
}

// Reindex rebuilds the corpus index from disk and swaps it in.
func (h *AdminHandler) Reindex(c *gin.Context) {
	result, err := h.ingest.Rebuild(c.Request.Context())
	if err != nil {
		if errors.Is(err, app.ErrRebuildInProgress) {
			response.Error(c, http.StatusConflict, response.CodeRebuildInProgress, "a rebuild is already running")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "rebuild failed: "+err.Error())
		return
	}
	response.OK(c, result)
}

// Documents lists the corpus loaded by the last successful rebuild.
func (h *AdminHandler) Documents(c *gin.Context) {
	response.OK(c, gin.H{"documents": h.ingest.Documents()})
}
