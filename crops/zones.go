package crops

import "github.com/agrisense/advisor/location"

type Profitability string

const (
	ProfitLow    Profitability = "low"
	ProfitMedium Profitability = "medium"
	ProfitHigh   Profitability = "high"
)

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Suggestion is a catalogue entry decorated with display metadata.
// The metadata comes from a fixed profile table, not from agronomic scoring.
type Suggestion struct {
	Name                string        `json:"name"`
	Profitability       Profitability `json:"profitability"`
	Trend               Trend         `json:"trend"`
	SuitabilityStars    int           `json:"suitabilityStars"`
	SustainabilityGrade string        `json:"sustainabilityGrade"`
}

// Suggestions groups the per-zone catalogue lists
type Suggestions struct {
	Zone            location.Zone `json:"zone"`
	Crops           []Suggestion  `json:"crops"`
	MedicinalPlants []Suggestion  `json:"medicinalPlants"`
	IncomeOptions   []Suggestion  `json:"incomeOptions"`
}

type profile struct {
	profit Profitability
	trend  Trend
	stars  int
	grade  string
}

var neutralProfile = profile{profit: ProfitMedium, trend: TrendFlat, stars: 3, grade: "B"}

var profiles = map[string]profile{
	"Rice":             {ProfitMedium, TrendUp, 5, "B"},
	"Wheat":            {ProfitMedium, TrendFlat, 4, "B"},
	"Maize":            {ProfitMedium, TrendUp, 4, "A"},
	"Banana":           {ProfitHigh, TrendUp, 4, "B"},
	"Vegetables":       {ProfitHigh, TrendUp, 5, "A"},
	"Finger millet":    {ProfitLow, TrendFlat, 4, "A"},
	"Fruits":           {ProfitHigh, TrendUp, 4, "B"},
	"Black lentil":     {ProfitMedium, TrendUp, 4, "A"},
	"Potato":           {ProfitMedium, TrendFlat, 5, "B"},
	"Buckwheat":        {ProfitLow, TrendUp, 5, "A"},
	"Barley":           {ProfitLow, TrendFlat, 4, "A"},
	"Leafy greens":     {ProfitMedium, TrendFlat, 3, "A"},
	"Herbs":            {ProfitHigh, TrendUp, 4, "A"},
	"Yarsagumba":       {ProfitHigh, TrendUp, 4, "B"},
	"Jatamansi":        {ProfitHigh, TrendFlat, 4, "B"},
	"Panchaunle":       {ProfitMedium, TrendUp, 5, "A"},
	"Ashwagandha":      {ProfitMedium, TrendUp, 4, "A"},
	"Tulsi":            {ProfitMedium, TrendFlat, 5, "A"},
	"Mint":             {ProfitMedium, TrendUp, 5, "A"},
	"Dairy":            {ProfitHigh, TrendUp, 4, "B"},
	"Beekeeping":       {ProfitMedium, TrendUp, 4, "A"},
	"Goat farming":     {ProfitHigh, TrendFlat, 3, "B"},
	"Medicinal greens": {ProfitMedium, TrendUp, 3, "A"},
}

var zoneCrops = map[location.Zone][]string{
	location.ZoneTerai:    {"Rice", "Wheat", "Maize", "Banana", "Vegetables"},
	location.ZoneMidHill:  {"Finger millet", "Fruits", "Black lentil", "Potato", "Wheat"},
	location.ZoneHighHill: {"Buckwheat", "Barley", "Potato", "Leafy greens", "Herbs"},
}

var (
	highlandMedicinal = []string{"Yarsagumba", "Jatamansi", "Panchaunle"}
	lowlandMedicinal  = []string{"Ashwagandha", "Tulsi", "Mint"}
	incomeOptions     = []string{"Dairy", "Beekeeping", "Goat farming", "Herbs", "Medicinal greens"}
)

// ZoneSuggestions returns the catalogue lists for a climate zone. Zones outside
// the table are treated as high-hill, matching the last branch of the ladder.
func ZoneSuggestions(zone location.Zone) Suggestions {
	names, ok := zoneCrops[zone]
	if !ok {
		zone = location.ZoneHighHill
		names = zoneCrops[zone]
	}

	meds := lowlandMedicinal
	if zone == location.ZoneHighHill {
		meds = highlandMedicinal
	}

	return Suggestions{
		Zone:            zone,
		Crops:           decorate(names),
		MedicinalPlants: decorate(meds),
		IncomeOptions:   decorate(incomeOptions),
	}
}

func decorate(names []string) []Suggestion {
	out := make([]Suggestion, 0, len(names))
	for _, n := range names {
		p, ok := profiles[n]
		if !ok {
			p = neutralProfile
		}
		out = append(out, Suggestion{
			Name:                n,
			Profitability:       p.profit,
			Trend:               p.trend,
			SuitabilityStars:    p.stars,
			SustainabilityGrade: p.grade,
		})
	}
	return out
}
