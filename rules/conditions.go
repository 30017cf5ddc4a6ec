package rules

import (
	"fmt"
	"math"
	"strings"
)

type Soil string

const (
	SoilClay  Soil = "Clay"
	SoilSandy Soil = "Sandy"
	SoilLoam  Soil = "Loam"
)

type Moisture string

const (
	MoistureLow    Moisture = "Low"
	MoistureMedium Moisture = "Medium"
	MoistureHigh   Moisture = "High"
)

// Conditions are the field facts a recommendation is computed from
type Conditions struct {
	TempC      float64  `json:"temp"`
	RainMm     float64  `json:"rain"`
	Soil       Soil     `json:"soil"`
	Moisture   Moisture `json:"moisture"`
	ElevationM float64  `json:"elevation"`
}

// ParseSoil matches a soil name case-insensitively
func ParseSoil(s string) (Soil, error) {
	for _, v := range []Soil{SoilClay, SoilSandy, SoilLoam} {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: please select soil type (Clay, Sandy or Loam)", ErrInvalidConditions)
}

// ParseMoisture matches a moisture level case-insensitively
func ParseMoisture(s string) (Moisture, error) {
	for _, v := range []Moisture{MoistureLow, MoistureMedium, MoistureHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: please select moisture level (Low, Medium or High)", ErrInvalidConditions)
}

// Validate checks the categorical inputs are present and canonical, and the
// numbers finite. The message after the sentinel is meant for the farmer.
func (c Conditions) Validate() error {
	if c.Soil == "" {
		return fmt.Errorf("%w: please select soil type", ErrInvalidConditions)
	}
	if c.Moisture == "" {
		return fmt.Errorf("%w: please select moisture level", ErrInvalidConditions)
	}
	switch c.Soil {
	case SoilClay, SoilSandy, SoilLoam:
	default:
		return fmt.Errorf("%w: unknown soil type %q", ErrInvalidConditions, c.Soil)
	}
	switch c.Moisture {
	case MoistureLow, MoistureMedium, MoistureHigh:
	default:
		return fmt.Errorf("%w: unknown moisture level %q", ErrInvalidConditions, c.Moisture)
	}
	for name, v := range map[string]float64{"temperature": c.TempC, "rainfall": c.RainMm, "elevation": c.ElevationM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidConditions, name)
		}
	}
	return nil
}

// Normalize returns a copy with soil and moisture in canonical case
func (c Conditions) Normalize() Conditions {
	if s, err := ParseSoil(string(c.Soil)); err == nil {
		c.Soil = s
	}
	if m, err := ParseMoisture(string(c.Moisture)); err == nil {
		c.Moisture = m
	}
	return c
}

// facts is the CEL activation for a set of conditions
func (c Conditions) facts() map[string]any {
	return map[string]any{
		"field": map[string]any{
			"temp":      c.TempC,
			"rain":      c.RainMm,
			"soil":      string(c.Soil),
			"moisture":  string(c.Moisture),
			"elevation": c.ElevationM,
		},
	}
}
