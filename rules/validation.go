package rules

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength       = 100
	maxExpressionLength = 2000
	maxPicksPerRule     = 5
)

var ruleIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateRule checks a rule's shape before it is compiled or stored.
// Whether the expression is valid CEL is left to the engine.
func ValidateRule(r *Rule) error {
	if r == nil {
		return fmt.Errorf("rule cannot be nil")
	}

	if !ruleIDPattern.MatchString(r.ID) {
		return fmt.Errorf("invalid rule ID %q: must match %s", r.ID, ruleIDPattern.String())
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("rule %s: name cannot be empty", r.ID)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("rule %s: name length %d exceeds maximum of %d characters", r.ID, len(name), maxNameLength)
	}

	if strings.TrimSpace(r.Expression) == "" {
		return fmt.Errorf("rule %s: expression cannot be empty", r.ID)
	}
	if len(r.Expression) > maxExpressionLength {
		return fmt.Errorf("rule %s: expression length %d exceeds maximum of %d characters", r.ID, len(r.Expression), maxExpressionLength)
	}

	if len(r.Crops) == 0 {
		return fmt.Errorf("rule %s: must suggest at least one crop", r.ID)
	}
	if len(r.Crops) > maxPicksPerRule {
		return fmt.Errorf("rule %s: suggests %d crops, maximum allowed is %d", r.ID, len(r.Crops), maxPicksPerRule)
	}
	for i, p := range r.Crops {
		if strings.TrimSpace(p.Crop) == "" {
			return fmt.Errorf("rule %s: crop %d has an empty name", r.ID, i)
		}
		if strings.TrimSpace(p.Crop) != p.Crop {
			return fmt.Errorf("rule %s: crop %q has leading/trailing whitespace", r.ID, p.Crop)
		}
	}

	return nil
}
