package http

import (
	"net/http"

	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

// AlertQueue holds alerts raised while no one was watching.
type AlertQueue interface {
	Drain() []string
}

type SessionHandler struct {
	service ports.VoterService
	alerts  AlertQueue
}

func NewSessionHandler(service ports.VoterService, alerts AlertQueue) *SessionHandler {
	return &SessionHandler{
		service: service,
		alerts:  alerts,
	}
}

type sessionResponse struct {
	ports.SessionView
	Alerts []string `json:"alerts"`
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	alerts := h.alerts.Drain()
	if alerts == nil {
		alerts = []string{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionView: h.service.Session(),
		Alerts:      alerts,
	})
}
