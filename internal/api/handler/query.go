package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"coursechat/internal/api/response"
	"coursechat/internal/domain"
	"coursechat/internal/service"
)

var validate = validator.New()

// QueryHandler handles the chat query endpoint
type QueryHandler struct {
	rag *service.RAGService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(rag *service.RAGService) *QueryHandler {
	return &QueryHandler{rag: rag}
}

// Query answers a question about course materials
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.rag.Query(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			response.Error(w, http.StatusBadGateway, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, result)
}
