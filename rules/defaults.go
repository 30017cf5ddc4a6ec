package rules

import (
	"errors"
	"fmt"
)

// DefaultRules returns the built-in crop rules in evaluation order.
// The cool-highland condition is redundant (the elevation term alone decides)
// but is kept in its published form.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			ID:         "warm-loam",
			Name:       "Warm loam with medium rain",
			Expression: `field.temp >= 20.0 && field.temp <= 30.0 && field.rain >= 8.0 && field.rain <= 20.0 && field.soil == "Loam"`,
			Priority:   10,
			Active:     true,
			Crops: []Pick{
				{Crop: "Rice", Reason: "Warm (20-30°C) with medium rain and loam soil fits Rice."},
				{Crop: "Maize", Reason: "Medium rain + loam soil keeps maize steady."},
			},
		},
		{
			ID:         "cool-highland",
			Name:       "Cool highland",
			Expression: `(field.temp < 18.0 || field.elevation > 1500.0) && field.elevation > 1500.0`,
			Priority:   20,
			Active:     true,
			Crops: []Pick{
				{Crop: "Potato", Reason: "Cool climate + high altitude suits potato."},
				{Crop: "Barley", Reason: "Highland cool weather favors barley."},
				{Crop: "Buckwheat", Reason: "Hardy grain for cool hills."},
			},
		},
		{
			ID:         "dry-sandy",
			Name:       "Dry sandy field",
			Expression: `field.rain < 8.0 && field.soil == "Sandy"`,
			Priority:   30,
			Active:     true,
			Crops: []Pick{
				{Crop: "Millet", Reason: "Low rain and sandy soil matches millet."},
				{Crop: "Lentils", Reason: "Low water need; good for dry fields."},
				{Crop: "Groundnuts", Reason: "Sandy, low rain areas support groundnuts."},
			},
		},
		{
			ID:         "wet-hot",
			Name:       "Wet and hot",
			Expression: `field.rain >= 20.0 && field.temp > 28.0`,
			Priority:   40,
			Active:     true,
			Crops: []Pick{
				{Crop: "Rice", Reason: "High rain + warm temp benefits paddy."},
				{Crop: "Ginger", Reason: "Moist heat helps ginger growth."},
				{Crop: "Turmeric", Reason: "Warm, wet spells suit turmeric."},
			},
		},
		{
			ID:         "moderate-balanced",
			Name:       "Moderate and balanced",
			Expression: `field.rain >= 8.0 && field.rain < 20.0 && field.temp >= 18.0 && field.temp < 28.0`,
			Priority:   50,
			Active:     true,
			Crops: []Pick{
				{Crop: "Maize", Reason: "Mild temp, moderate rain balances maize."},
				{Crop: "Millet", Reason: "Tolerant to varied rainfall."},
				{Crop: "Vegetables", Reason: "Balanced climate for mixed vegetables."},
			},
		},
	}
}

// FallbackPicks are returned when no rule matches
func FallbackPicks() []Pick {
	return []Pick{
		{Crop: "Maize", Reason: "General fit crop for mixed climates."},
		{Crop: "Vegetables", Reason: "Flexible option with broad suitability."},
		{Crop: "Millet", Reason: "Resilient choice with low inputs."},
	}
}

// SeedDefaults adds any default rule missing from store. Existing rules,
// including admin edits to defaults, are left alone. Returns the number added.
func SeedDefaults(store RuleStore) (int, error) {
	added := 0
	for _, r := range DefaultRules() {
		_, err := store.Get(r.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrRuleNotFound) {
			return added, fmt.Errorf("failed to check default rule %s: %w", r.ID, err)
		}
		if err := store.Add(r); err != nil {
			return added, fmt.Errorf("failed to seed rule %s: %w", r.ID, err)
		}
		added++
	}
	return added, nil
}
