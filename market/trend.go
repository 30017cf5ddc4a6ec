// Package market turns a price series into selling advice.
package market

import (
	"math"
	"math/rand"
	"strings"

	"github.com/agrisense/advisor/location"
)

type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

const (
	TipWait   = "Wait ~2 weeks, demand rising"
	TipSell   = "Sell early before price drops"
	TipStable = "Stable market, negotiate transport rates"
)

// trendThreshold is the first-to-last move that counts as a trend
const trendThreshold = 10.0

type Analysis struct {
	Slope float64 `json:"slope"`
	Trend Trend   `json:"trend"`
	Tip   string  `json:"tip"`
}

// AnalyzeTrend compares the last price with the first. A series with fewer
// than two points is stable.
func AnalyzeTrend(prices []float64) Analysis {
	var slope float64
	if len(prices) >= 2 {
		slope = prices[len(prices)-1] - prices[0]
	}

	switch {
	case slope > trendThreshold:
		return Analysis{Slope: slope, Trend: TrendRising, Tip: TipWait}
	case slope < -trendThreshold:
		return Analysis{Slope: slope, Trend: TrendFalling, Tip: TipSell}
	default:
		return Analysis{Slope: slope, Trend: TrendStable, Tip: TipStable}
	}
}

// Series is a price index with its analysis and the markets to sell at
type Series struct {
	Prices   []float64 `json:"prices"`
	Analysis Analysis  `json:"analysis"`
	Nearby   []string  `json:"nearby"`
}

const (
	DefaultWalkLength = 14
	walkFloor         = 50.0
)

// RandomWalk produces a synthetic price index of n points. It starts in
// [100, 140), moves by [-2, 6) per step and never drops below 50.
func RandomWalk(rng *rand.Rand, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	p := 100 + rng.Float64()*40
	out := make([]float64, n)
	for i := range out {
		p += rng.Float64()*8 - 2
		out[i] = math.Max(walkFloor, math.Round(p))
	}
	return out
}

var defaultMarkets = []string{"Local cooperative", "Town market", "Agriculture centre"}

// NearbyMarkets returns the market names of a gazetteer district, or a
// generic list when the district is unknown.
func NearbyMarkets(district string) []string {
	if d, ok := location.LookupDistrict(strings.TrimSpace(district)); ok && len(d.Markets) > 0 {
		return d.Markets
	}
	return append([]string(nil), defaultMarkets...)
}

// NewSeries builds a synthetic series for a district
func NewSeries(rng *rand.Rand, district string) Series {
	prices := RandomWalk(rng, DefaultWalkLength)
	return Series{
		Prices:   prices,
		Analysis: AnalyzeTrend(prices),
		Nearby:   NearbyMarkets(district),
	}
}
