package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/agrisense/advisor/advisory"
	"github.com/agrisense/advisor/community"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/rules"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes {"error", "details"} and counts the response by class
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	switch {
	case status >= 500:
		logger.ErrorHttp5xx()
		logger.Error("request failed", "status", status, "error", message, "details", response["details"])
	case status >= 400:
		logger.WarnHttp4xx(status)
	}
	respondJSON(w, status, response)
}

// respondErr picks the status from the error
func respondErr(w http.ResponseWriter, message string, err error) {
	respondError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rules.ErrInvalidConditions),
		errors.Is(err, rules.ErrInvalidRule),
		errors.Is(err, community.ErrInvalidPoll),
		errors.Is(err, community.ErrInvalidOption),
		errors.Is(err, community.ErrIncompleteSurvey),
		errors.Is(err, advisory.ErrLandSize),
		errors.Is(err, advisory.ErrNoLocation),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, rules.ErrRuleNotFound),
		errors.Is(err, community.ErrPollNotFound),
		errors.Is(err, community.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrRuleExists),
		errors.Is(err, community.ErrAlreadyVoted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest   = errors.New("bad request")
	errNeedLocation = errors.New("latitude and longitude, or district, are required")
)

func wrapBadRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

// decodeJSON reads a bounded JSON body and rejects unknown fields
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
