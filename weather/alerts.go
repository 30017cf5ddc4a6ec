// Package weather derives farm advisories from a short daily forecast series.
package weather

import "fmt"

// DailyWeather is one forecast day. Index 0 of a series is today.
type DailyWeather struct {
	Date       string  `json:"date,omitempty"`
	HighTempC  float64 `json:"highTempC"`
	LowTempC   float64 `json:"lowTempC"`
	RainfallMm float64 `json:"rainfallMm"`
}

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

type Alert struct {
	Severity          Severity `json:"severity"`
	Message           string   `json:"message"`
	RecommendedAction string   `json:"recommendedAction"`
	Day               int      `json:"day"`
}

// DisplayCap is the number of alerts shown on a dashboard
const DisplayCap = 6

const (
	heavyRainMm   = 25.0
	frostLowC     = 3.0
	heatwaveHighC = 35.0
	pestHighC     = 33.0
	pestRainSumMm = 45.0
	pestWindow    = 3
)

// BuildAlerts checks every day in order and returns all alerts, uncapped.
// Within a day the order is rain, frost, heat, pest.
func BuildAlerts(days []DailyWeather) []Alert {
	alerts := []Alert{}
	for i, d := range days {
		if d.RainfallMm >= heavyRainMm {
			alerts = append(alerts, Alert{SeverityDanger, "Heavy rainfall warning", "Harvest early", i})
		}
		if d.LowTempC <= frostLowC {
			alerts = append(alerts, Alert{SeverityWarning, "Frost risk", "Protect seedlings", i})
		}
		if d.HighTempC >= heatwaveHighC {
			alerts = append(alerts, Alert{SeverityWarning, "Heatwave & pest risk", "Irrigate, monitor pests", i})
		}
		if i >= pestWindow-1 && d.HighTempC >= pestHighC && windowRain(days, i) >= pestRainSumMm {
			alerts = append(alerts, Alert{SeverityWarning, "High pest risk", "Use traps, bio-control", i})
		}
	}
	return alerts
}

// windowRain sums rainfall over day i and the two days before it
func windowRain(days []DailyWeather, i int) float64 {
	var sum float64
	for j := i - pestWindow + 1; j <= i; j++ {
		sum += days[j].RainfallMm
	}
	return sum
}

// DisplayAlerts returns at most limit alerts in detection order.
// A limit <= 0 means DisplayCap.
func DisplayAlerts(days []DailyWeather, limit int) []Alert {
	if limit <= 0 {
		limit = DisplayCap
	}
	alerts := BuildAlerts(days)
	if len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts
}

// Insight is a short per-day note shown alongside the forecast chart
type Insight struct {
	Day     int    `json:"day"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	insightRainMm = 20.0
	insightHotC   = 32.0
)

// Insights flags days with notable rain or heat, using looser thresholds
// than BuildAlerts.
func Insights(days []DailyWeather) []Insight {
	out := []Insight{}
	for i, d := range days {
		if d.RainfallMm > insightRainMm {
			out = append(out, Insight{i, "rain", fmt.Sprintf("Heavy rain expected on day %d (%.0f mm)", i+1, d.RainfallMm)})
		}
		if d.HighTempC > insightHotC {
			out = append(out, Insight{i, "heat", fmt.Sprintf("High temperature on day %d (%.0f°C)", i+1, d.HighTempC)})
		}
	}
	return out
}
