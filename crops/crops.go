package crops

import "strings"

// Info is the reference record for a crop
type Info struct {
	Name  string `json:"name"`
	Sow   string `json:"sow"`
	Water string `json:"water"`
}

var catalog = map[string]Info{
	"Rice":       {Name: "Rice (धान)", Sow: "Monsoon", Water: "High"},
	"Maize":      {Name: "Maize (मकै)", Sow: "Spring/Monsoon", Water: "Medium"},
	"Millet":     {Name: "Millet (कोदो)", Sow: "Monsoon", Water: "Low/Medium"},
	"Lentils":    {Name: "Lentils (मसुरो)", Sow: "Winter", Water: "Low"},
	"Groundnuts": {Name: "Groundnuts (बदाम)", Sow: "Spring", Water: "Low/Medium"},
	"Potato":     {Name: "Potato (आलु)", Sow: "Spring/Winter", Water: "Medium"},
	"Barley":     {Name: "Barley (जौ)", Sow: "Winter", Water: "Medium"},
	"Buckwheat":  {Name: "Buckwheat (फापर)", Sow: "Monsoon", Water: "Low/Medium"},
	"Ginger":     {Name: "Ginger (अदुवा)", Sow: "Monsoon", Water: "High"},
	"Turmeric":   {Name: "Turmeric (बेसार)", Sow: "Monsoon", Water: "High"},
	"Vegetables": {Name: "Vegetables (सागसब्जी)", Sow: "Year-round", Water: "Medium"},
}

// Lookup returns the reference record for crop. Unknown crops come back with
// the bare name and empty metadata.
func Lookup(crop string) Info {
	if info, ok := catalog[crop]; ok {
		return info
	}
	return Info{Name: crop}
}

// DefaultYield is used for crops missing from the yield table (t/ha)
const DefaultYield = 3.0

var yields = map[string]float64{
	"rice":       4.5,
	"maize":      3.8,
	"wheat":      3.5,
	"millet":     2.5,
	"vegetables": 8,
}

// YieldPerHectare returns the typical yield in tonnes per hectare
func YieldPerHectare(crop string) float64 {
	if y, ok := yields[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return y
	}
	return DefaultYield
}
