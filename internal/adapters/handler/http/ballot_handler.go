package http

import (
	"encoding/json"
	"net/http"

	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
)

type BallotHandler struct {
	service ports.VoterService
}

func NewBallotHandler(service ports.VoterService) *BallotHandler {
	return &BallotHandler{
		service: service,
	}
}

type selectionRequest struct {
	Response string `json:"response"`
}

func (h *BallotHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Questions(r.Context()))
}

func (h *BallotHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshOpenQuestions(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Questions(r.Context()))
}

func (h *BallotHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	ballot, err := h.service.Ballot(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballot)
}

func (h *BallotHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Response == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ballot, err := h.service.Select(r.Context(), id, req.Response)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballot)
}

func (h *BallotHandler) Rank(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	var req ports.RankInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Response == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	switch req.Op {
	case ports.RankAdd, ports.RankUp, ports.RankDown, ports.RankDelete:
	case ports.RankBefore:
		if req.Before == "" {
			http.Error(w, "missing ranking anchor", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "unknown ranking operation", http.StatusBadRequest)
		return
	}
	ballot, err := h.service.Rank(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballot)
}

func (h *BallotHandler) Sign(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	ballot, err := h.service.Sign(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballot)
}

func (h *BallotHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	ballot, err := h.service.Vote(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ballot)
}

// Verify answers 422 with the full report when the authority's records do
// not match the ballot.
func (h *BallotHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := questionID(r)
	if !ok {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	report, err := h.service.Verify(r.Context(), id)
	if err != nil {
		if report != nil {
			writeJSON(w, statusFor(err), report)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
