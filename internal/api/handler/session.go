package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursechat/internal/api/response"
	"coursechat/internal/domain"
	"coursechat/internal/service"
)

// SessionHandler handles conversation history endpoints
type SessionHandler struct {
	rag *service.RAGService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(rag *service.RAGService) *SessionHandler {
	return &SessionHandler{rag: rag}
}

// History returns a session's retained exchanges
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	history, err := h.rag.History(r.Context(), sessionID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}
	if history == nil {
		history = []domain.Exchange{}
	}

	response.OK(w, map[string]any{
		"session_id": sessionID,
		"exchanges":  history,
	})
}

// Clear drops a session's history
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "missing session ID")
		return
	}

	if err := h.rag.ClearSession(r.Context(), sessionID); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}
