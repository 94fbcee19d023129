package http

import (
	"net/http"

	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{
		service: service,
	}
}

func (h *ReportHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	result, err := h.service.Results(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
