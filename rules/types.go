package rules

import (
	"errors"
	"time"
)

var (
	// ErrInvalidConditions is returned when field conditions are missing or unknown
	ErrInvalidConditions = errors.New("invalid field conditions")
	ErrRuleNotFound      = errors.New("rule not found")
	ErrRuleExists        = errors.New("rule already exists")
	// ErrInvalidRule wraps shape and compile errors from AddRule and UpdateRule
	ErrInvalidRule       = errors.New("rule validation failed")
)

// Pick is one crop a rule contributes when it matches
type Pick struct {
	Crop   string `json:"crop"`
	Reason string `json:"reason"`
}

// Rule is a CEL condition over the field facts plus the crops it suggests.
// Rules are evaluated in ascending Priority order, ties broken by ID.
type Rule struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Priority   int       `json:"priority"`
	Crops      []Pick    `json:"crops"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EvaluationResult contains the outcome of evaluating a rule
type EvaluationResult struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Matched  bool   `json:"matched"`
	Error    error  `json:"-"`
	Trace    any    `json:"-"` // CEL evaluation state, when tracked
}

// CropPick is a recommended crop enriched with reference data
type CropPick struct {
	Crop   string `json:"crop"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Sow    string `json:"sow"`
	Water  string `json:"water"`
}
