package location

import (
	"fmt"
	"math"
	"strings"
)

// Zone is a coarse climate bucket derived from altitude or latitude
type Zone string

const (
	ZoneTerai    Zone = "Terai/Subtropical"
	ZoneMidHill  Zone = "Mid-Hill/Temperate"
	ZoneHighHill Zone = "High-Hill/Cold"
)

// Zones lists every climate zone, lowest first
var Zones = []Zone{ZoneTerai, ZoneMidHill, ZoneHighHill}

// District is a named gazetteer point with its local markets
type District struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Markets   []string `json:"markets"`
}

// Location is the classification of a coordinate
type Location struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Altitude    *float64 `json:"altitude,omitempty"`
	District    string   `json:"district"`
	ClimateZone Zone     `json:"climateZone"`
}

// gazetteer order matters: ties resolve to the earlier entry
var gazetteer = []District{
	{Name: "Kathmandu", Latitude: 27.7172, Longitude: 85.3240, Markets: []string{"Kalanki", "Kalimati", "Naya Bazar"}},
	{Name: "Kaski", Latitude: 28.2096, Longitude: 83.9856, Markets: []string{"Pokhara", "Lamachaur", "Milanchok"}},
	{Name: "Morang", Latitude: 26.4870, Longitude: 87.2846, Markets: []string{"Biratnagar", "Rangeli", "Letang"}},
	{Name: "Banke", Latitude: 28.0500, Longitude: 81.6167, Markets: []string{"Nepalgunj", "Khajura", "Kohalpur"}},
	{Name: "Lalitpur", Latitude: 27.6667, Longitude: 85.3333, Markets: []string{"Lagankhel", "Godawari", "Chapagaun"}},
	{Name: "Chitwan", Latitude: 27.5291, Longitude: 84.3542, Markets: []string{"Bharatpur", "Ratnanagar", "Narayangarh"}},
	{Name: "Rupandehi", Latitude: 27.5760, Longitude: 83.5070, Markets: []string{"Butwal", "Bhairahawa", "Manigram"}},
}

// Classify resolves the nearest district and the climate zone of a coordinate.
// A nil altitude falls back to latitude thresholds.
func Classify(lat, lon float64, altitude *float64) Location {
	d := NearestDistrict(lat, lon)
	return Location{
		Latitude:    lat,
		Longitude:   lon,
		Altitude:    altitude,
		District:    d.Name,
		ClimateZone: ZoneFor(lat, altitude),
	}
}

// NearestDistrict returns the gazetteer point closest to (lat, lon) by plain
// Euclidean distance on degrees.
func NearestDistrict(lat, lon float64) District {
	return copyDistrict(nearest(gazetteer, lat, lon))
}

// nearest keeps the first point on ties (strict less-than)
func nearest(points []District, lat, lon float64) District {
	best := points[0]
	bestDist := math.Inf(1)
	for _, p := range points {
		dist := math.Hypot(lat-p.Latitude, lon-p.Longitude)
		if dist < bestDist {
			bestDist = dist
			best = p
		}
	}
	return best
}

// ZoneFor applies the altitude ladder, or the latitude ladder when altitude is unknown
func ZoneFor(lat float64, altitude *float64) Zone {
	if altitude != nil {
		switch {
		case *altitude < 1000:
			return ZoneTerai
		case *altitude < 2000:
			return ZoneMidHill
		default:
			return ZoneHighHill
		}
	}
	switch {
	case lat < 27:
		return ZoneTerai
	case lat < 29:
		return ZoneMidHill
	default:
		return ZoneHighHill
	}
}

// LookupDistrict finds a gazetteer entry by name, ignoring case
func LookupDistrict(name string) (District, bool) {
	name = strings.TrimSpace(name)
	for _, p := range gazetteer {
		if strings.EqualFold(p.Name, name) {
			return copyDistrict(p), true
		}
	}
	return District{}, false
}

// FromDistrict builds a location for a manually selected district.
// Altitude is unknown, so the zone comes from the district latitude.
func FromDistrict(name string) (Location, error) {
	d, ok := LookupDistrict(name)
	if !ok {
		return Location{}, fmt.Errorf("unknown district %q", name)
	}
	return Location{
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		District:    d.Name,
		ClimateZone: ZoneFor(d.Latitude, nil),
	}, nil
}

// Districts returns the gazetteer in list order
func Districts() []District {
	out := make([]District, 0, len(gazetteer))
	for _, p := range gazetteer {
		out = append(out, copyDistrict(p))
	}
	return out
}

// ParseZone accepts the full label or a short alias (terai, midhill, highhill)
func ParseZone(s string) (Zone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(string(ZoneTerai)), "terai", "subtropical":
		return ZoneTerai, nil
	case strings.ToLower(string(ZoneMidHill)), "midhill", "mid-hill", "temperate":
		return ZoneMidHill, nil
	case strings.ToLower(string(ZoneHighHill)), "highhill", "high-hill", "cold":
		return ZoneHighHill, nil
	default:
		return "", fmt.Errorf("unknown climate zone %q", s)
	}
}

func copyDistrict(d District) District {
	d.Markets = append([]string(nil), d.Markets...)
	return d
}
