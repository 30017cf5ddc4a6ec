package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agrisense/advisor/rules"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Engine.ListRules()
	if err != nil {
		respondErr(w, "failed to list rules", err)
		return
	}
	if all == nil {
		all = []*rules.Rule{}
	}
	respondJSON(w, http.StatusOK, RulesListResponse{Rules: all})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.rule()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	if err := s.deps.Engine.AddRule(rule); err != nil {
		respondErr(w, "failed to add rule", err)
		return
	}
	s.log.Info("rule added", "rule", rule.ID, "priority", rule.Priority)
	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.deps.Engine.GetRule(chi.URLParam(r, "ruleId"))
	if err != nil {
		respondErr(w, "failed to get rule", err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	var req RuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID != "" && req.ID != ruleID {
		respondError(w, http.StatusBadRequest, "rule id in body does not match path", nil)
		return
	}

	rule := req.rule()
	rule.ID = ruleID
	if err := s.deps.Engine.UpdateRule(rule); err != nil {
		respondErr(w, "failed to update rule", err)
		return
	}

	updated, err := s.deps.Engine.GetRule(ruleID)
	if err != nil {
		respondErr(w, "failed to get rule", err)
		return
	}
	s.log.Info("rule updated", "rule", ruleID)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")
	if err := s.deps.Engine.DeleteRule(ruleID); err != nil {
		respondErr(w, "failed to delete rule", err)
		return
	}
	s.log.Info("rule deleted", "rule", ruleID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	c := req.conditions()
	startTime := time.Now()
	results, err := s.deps.Engine.EvaluateAll(c)
	if err != nil {
		respondErr(w, "evaluation failed", err)
		return
	}

	resp := EvaluateResponse{
		Results:        make([]EvaluationResultResponse, 0, len(results)),
		EvaluationTime: time.Since(startTime).String(),
	}
	for _, res := range results {
		item := EvaluationResultResponse{RuleID: res.RuleID, RuleName: res.RuleName, Matched: res.Matched}
		if res.Error != nil {
			item.Error = res.Error.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	respondJSON(w, http.StatusOK, resp)
}

// rule defaults Active to true when omitted
func (req RuleRequest) rule() *rules.Rule {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &rules.Rule{
		ID:         req.ID,
		Name:       req.Name,
		Expression: req.Expression,
		Priority:   req.Priority,
		Crops:      req.Crops,
		Active:     active,
	}
}
