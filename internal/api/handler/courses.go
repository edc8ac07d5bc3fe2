package handler

import (
	"net/http"

	"coursechat/internal/api/response"
	"coursechat/internal/service"
)

// CourseHandler handles course analytics endpoints
type CourseHandler struct {
	rag *service.RAGService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(rag *service.RAGService) *CourseHandler {
	return &CourseHandler{rag: rag}
}

// Stats returns the number of indexed courses and their titles
func (h *CourseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rag.Stats(r.Context())
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, stats)
}
