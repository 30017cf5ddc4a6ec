package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agrisense/advisor/community"
)

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := s.deps.Polls.List(r.Context())
	if err != nil {
		respondErr(w, "failed to list polls", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"polls": polls})
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req CreatePollRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	poll, err := s.deps.Polls.Create(r.Context(), req.Question, req.Options)
	if err != nil {
		respondErr(w, "failed to create poll", err)
		return
	}
	respondJSON(w, http.StatusCreated, poll)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := s.deps.Polls.Get(r.Context(), chi.URLParam(r, "pollId"))
	if err != nil {
		respondErr(w, "failed to get poll", err)
		return
	}
	respondJSON(w, http.StatusOK, poll)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	poll, err := s.deps.Polls.Vote(r.Context(), chi.URLParam(r, "pollId"), req.VoterID, req.Option)
	if err != nil {
		respondErr(w, "failed to record vote", err)
		return
	}

	s.record(r.Context(), community.KindBehaviour, map[string]any{
		"action": "vote",
		"poll":   poll.ID,
	})
	respondJSON(w, http.StatusOK, poll)
}

func (s *Server) handleSurvey(w http.ResponseWriter, r *http.Request) {
	var req SurveyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	credits, err := community.CompleteSurvey(r.Context(), s.deps.Credits, chi.URLParam(r, "farmerId"), req.Answers)
	if err != nil {
		respondErr(w, "failed to record survey", err)
		return
	}
	respondJSON(w, http.StatusOK, credits)
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := s.deps.Credits.Credits(r.Context(), chi.URLParam(r, "farmerId"))
	if err != nil {
		respondErr(w, "failed to get credits", err)
		return
	}
	respondJSON(w, http.StatusOK, credits)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	kind := community.Kind(chi.URLParam(r, "kind"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	events, err := s.deps.Analytics.Recent(r.Context(), kind, limit)
	if err != nil {
		respondErr(w, "failed to read analytics", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"kind": kind, "events": events})
}
