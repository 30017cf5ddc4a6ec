package httpapi

import (
	"github.com/agrisense/advisor/advisory"
	"github.com/agrisense/advisor/location"
	"github.com/agrisense/advisor/rules"
	"github.com/agrisense/advisor/weather"
)

// ClassifyRequest locates a farm by coordinates or by district name
type ClassifyRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	District  string   `json:"district,omitempty"`
}

// RecommendRequest carries the field conditions entered by the farmer
type RecommendRequest struct {
	Temp      float64 `json:"temp"`
	Rain      float64 `json:"rain"`
	Soil      string  `json:"soil"`
	Moisture  string  `json:"moisture"`
	Elevation float64 `json:"elevation"`
}

// RecommendResponse lists up to three picks
type RecommendResponse struct {
	Crops []rules.CropPick `json:"crops"`
}

// AlertsRequest is a daily series, index 0 being today
type AlertsRequest struct {
	Days []weather.DailyWeather `json:"days"`
}

// AlertsResponse holds the capped alerts and the total detected
type AlertsResponse struct {
	Alerts []weather.Alert `json:"alerts"`
	Total  int             `json:"total"`
}

// DashboardRequest is the caller-owned session, optionally with a location to classify
type DashboardRequest struct {
	Session  advisory.Session `json:"session"`
	Classify *ClassifyRequest `json:"classify,omitempty"`
}

// TrendRequest is a price series in chronological order
type TrendRequest struct {
	Prices []float64 `json:"prices"`
}

// YieldRequest estimates production for a plot
type YieldRequest struct {
	Crop       string  `json:"crop"`
	LandHa     float64 `json:"landHa"`
	PerHectare float64 `json:"perHectare,omitempty"`
}

// CreatePollRequest represents the request body for creating a poll
type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// VoteRequest casts one vote
type VoteRequest struct {
	VoterID string `json:"voterId"`
	Option  int    `json:"option"`
}

// SurveyRequest carries the six survey answers
type SurveyRequest struct {
	Answers []string `json:"answers"`
}

// RuleRequest creates or replaces a crop rule
type RuleRequest struct {
	ID         string       `json:"id,omitempty"`
	Name       string       `json:"name"`
	Expression string       `json:"expression"`
	Priority   int          `json:"priority"`
	Crops      []rules.Pick `json:"crops"`
	Active     *bool        `json:"active,omitempty"`
}

// RulesListResponse represents the response for listing rules
type RulesListResponse struct {
	Rules []*rules.Rule `json:"rules"`
}

// EvaluateResponse reports every active rule against the conditions
type EvaluateResponse struct {
	Results        []EvaluationResultResponse `json:"results"`
	EvaluationTime string                     `json:"evaluationTime"`
}

// EvaluationResultResponse represents a single rule evaluation result
type EvaluationResultResponse struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Matched  bool   `json:"matched"`
	Error    string `json:"error,omitempty"`
}

// resolveLocation classifies coordinates or looks up a district
func (c ClassifyRequest) resolveLocation() (location.Location, error) {
	if c.Latitude != nil && c.Longitude != nil {
		return location.Classify(*c.Latitude, *c.Longitude, c.Altitude), nil
	}
	if c.District != "" {
		loc, err := location.FromDistrict(c.District)
		if err != nil {
			return location.Location{}, wrapBadRequest(err)
		}
		return loc, nil
	}
	return location.Location{}, wrapBadRequest(errNeedLocation)
}
