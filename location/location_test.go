package location

import (
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestZoneFor_Altitude(t *testing.T) {
	testCases := []struct {
		name     string
		altitude float64
		want     Zone
	}{
		{"sea level", 0, ZoneTerai},
		{"just below 1000", 999.9, ZoneTerai},
		{"exactly 1000", 1000, ZoneMidHill},
		{"just below 2000", 1999.9, ZoneMidHill},
		{"exactly 2000", 2000, ZoneHighHill},
		{"himalaya", 4500, ZoneHighHill},
		{"negative altitude", -20, ZoneTerai},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// latitude deliberately contradicts the altitude ladder
			got := ZoneFor(35, ptr(tc.altitude))
			if got != tc.want {
				t.Errorf("ZoneFor(35, %v) = %q, want %q", tc.altitude, got, tc.want)
			}
		})
	}
}

func TestZoneFor_LatitudeFallback(t *testing.T) {
	testCases := []struct {
		lat  float64
		want Zone
	}{
		{26.4, ZoneTerai},
		{26.999, ZoneTerai},
		{27, ZoneMidHill},
		{28.5, ZoneMidHill},
		{29, ZoneHighHill},
		{30.1, ZoneHighHill},
	}

	for _, tc := range testCases {
		got := ZoneFor(tc.lat, nil)
		if got != tc.want {
			t.Errorf("ZoneFor(%v, nil) = %q, want %q", tc.lat, got, tc.want)
		}
	}
}

func TestClassify_NearestDistrict(t *testing.T) {
	testCases := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"exact Kathmandu", 27.7172, 85.3240, "Kathmandu"},
		{"near Pokhara", 28.2, 84.0, "Kaski"},
		{"Biratnagar", 26.45, 87.27, "Morang"},
		{"Nepalgunj", 28.05, 81.62, "Banke"},
		{"Bharatpur", 27.68, 84.43, "Chitwan"},
		{"Butwal", 27.7, 83.46, "Rupandehi"},
		{"far away still resolves", -33.9, 151.2, "Morang"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loc := Classify(tc.lat, tc.lon, nil)
			if loc.District != tc.want {
				t.Errorf("Classify(%v, %v).District = %q, want %q", tc.lat, tc.lon, loc.District, tc.want)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	first := Classify(27.6, 85.1, ptr(1400))
	second := Classify(27.6, 85.1, ptr(1400))

	if first.District != second.District {
		t.Errorf("district changed between calls: %q vs %q", first.District, second.District)
	}
	if first.ClimateZone != second.ClimateZone {
		t.Errorf("zone changed between calls: %q vs %q", first.ClimateZone, second.ClimateZone)
	}
	if first.ClimateZone != ZoneMidHill {
		t.Errorf("ClimateZone = %q, want %q", first.ClimateZone, ZoneMidHill)
	}
}

func TestNearestDistrict_TieKeepsFirst(t *testing.T) {
	points := []District{
		{Name: "East", Latitude: 0, Longitude: 1},
		{Name: "West", Latitude: 0, Longitude: -1},
	}

	if got := nearest(points, 0, 0); got.Name != "East" {
		t.Errorf("tie resolved to %q, want East", got.Name)
	}

	points[0], points[1] = points[1], points[0]
	if got := nearest(points, 0, 0); got.Name != "West" {
		t.Errorf("tie resolved to %q after reorder, want West", got.Name)
	}
}

func TestNearestDistrict_ReturnsCopy(t *testing.T) {
	d := NearestDistrict(27.7172, 85.3240)
	d.Markets[0] = "mutated"

	again := NearestDistrict(27.7172, 85.3240)
	if again.Markets[0] == "mutated" {
		t.Error("NearestDistrict leaked the gazetteer slice")
	}
}

func TestLookupDistrict(t *testing.T) {
	d, ok := LookupDistrict("  kaski ")
	if !ok {
		t.Fatal("LookupDistrict(kaski) not found")
	}
	if d.Name != "Kaski" || len(d.Markets) != 3 {
		t.Errorf("unexpected district %+v", d)
	}

	if _, ok := LookupDistrict("Atlantis"); ok {
		t.Error("LookupDistrict(Atlantis) should not be found")
	}
}

func TestFromDistrict(t *testing.T) {
	loc, err := FromDistrict("Morang")
	if err != nil {
		t.Fatalf("FromDistrict() failed: %v", err)
	}
	if loc.ClimateZone != ZoneTerai {
		t.Errorf("Morang zone = %q, want %q", loc.ClimateZone, ZoneTerai)
	}
	if loc.Altitude != nil {
		t.Error("manual location should have unknown altitude")
	}

	if _, err := FromDistrict("Nowhere"); err == nil {
		t.Error("FromDistrict(Nowhere) should fail")
	}
}

func TestParseZone(t *testing.T) {
	valid := map[string]Zone{
		"Terai/Subtropical":  ZoneTerai,
		"terai":              ZoneTerai,
		"Mid-Hill/Temperate": ZoneMidHill,
		"midhill":            ZoneMidHill,
		"HIGH-HILL/COLD":     ZoneHighHill,
		"cold":               ZoneHighHill,
	}
	for in, want := range valid {
		got, err := ParseZone(in)
		if err != nil {
			t.Errorf("ParseZone(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseZone(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseZone("tundra"); err == nil {
		t.Error("ParseZone(tundra) should fail")
	}
}

func TestDistricts_Order(t *testing.T) {
	ds := Districts()
	if len(ds) != 7 {
		t.Fatalf("len(Districts()) = %d, want 7", len(ds))
	}
	if ds[0].Name != "Kathmandu" || ds[6].Name != "Rupandehi" {
		t.Errorf("unexpected order: first=%q last=%q", ds[0].Name, ds[6].Name)
	}
}
