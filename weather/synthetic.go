package weather

import (
	"math"
	"math/rand"
	"time"

	"github.com/agrisense/advisor/location"
)

var zoneBaseHigh = map[location.Zone]float64{
	location.ZoneHighHill: 12,
	location.ZoneMidHill:  22,
	location.ZoneTerai:    30,
}

// Synthetic generates n demo days for a zone. Highs vary in [base-2, base+6),
// lows sit 6 to 10 degrees below, and about 60% of days are dry. n <= 0
// yields an empty series.
func Synthetic(zone location.Zone, n int, rng *rand.Rand) []DailyWeather {
	if n <= 0 {
		return []DailyWeather{}
	}
	base, ok := zoneBaseHigh[zone]
	if !ok {
		base = zoneBaseHigh[location.ZoneMidHill]
	}
	start := time.Now().UTC()

	days := make([]DailyWeather, n)
	for i := range days {
		high := math.Round(base + (rng.Float64()*8 - 2))
		low := math.Round(high - (6 + rng.Float64()*4))
		rain := math.Round(math.Max(0, (rng.Float64()-0.4)*40))
		days[i] = DailyWeather{
			Date:       start.AddDate(0, 0, i).Format(time.DateOnly),
			HighTempC:  high,
			LowTempC:   low,
			RainfallMm: rain,
		}
	}
	return days
}
