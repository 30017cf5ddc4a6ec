package advisory

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/agrisense/advisor/crops"
	"github.com/agrisense/advisor/location"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageNepali  Language = "ne"
)

// ParseLanguage defaults to English for an empty value
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en":
		return LanguageEnglish, nil
	case "ne":
		return LanguageNepali, nil
	default:
		return "", fmt.Errorf("unsupported language %q (allowed: en, ne)", s)
	}
}

type Scheme struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Eligible    bool   `json:"eligible"`
}

type schemeText struct {
	en, enDesc, ne, neDesc string
}

var (
	seedSubsidy       = schemeText{"Seed subsidy", "Partial subsidy on certified seed", "बीउ अनुदान", "प्रमाणित बीउमा आंशिक अनुदान उपलब्ध"}
	irrigationSubsidy = schemeText{"Irrigation subsidy", "Support for small irrigation technology", "सिंचाइ अनुदान", "साना सिंचाइ प्रविधिमा सहयोग"}
	organicFarming    = schemeText{"Organic farming promotion", "Help with organic certification", "जैविक खेती प्रोत्साहन", "जैविक प्रमाणीकरणमा सहायता"}
	dairyLoan         = schemeText{"Dairy concessional loan", "Loans at a concessional rate", "डेरी सहुलियत ऋण", "सहुलियत दरमा ऋण योजना"}
)

func (t schemeText) scheme(lang Language, eligible bool) Scheme {
	if lang == LanguageNepali {
		return Scheme{Name: t.ne, Description: t.neDesc, Eligible: eligible}
	}
	return Scheme{Name: t.en, Description: t.enDesc, Eligible: eligible}
}

// Schemes lists subsidy schemes with eligibility for a zone. Terai farms
// are not eligible for the irrigation subsidy.
func Schemes(zone location.Zone, lang Language) []Scheme {
	return []Scheme{
		seedSubsidy.scheme(lang, true),
		irrigationSubsidy.scheme(lang, zone != location.ZoneTerai),
		organicFarming.scheme(lang, true),
		dairyLoan.scheme(lang, true),
	}
}

type NoticeType string

const (
	NoticeFunding  NoticeType = "funding"
	NoticeBudget   NoticeType = "budget"
	NoticeSubsidy  NoticeType = "subsidy"
	NoticeProgram  NoticeType = "program"
	NoticeTraining NoticeType = "training"
	NoticePricing  NoticeType = "pricing"
)

type Notice struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Date    string     `json:"date"`
	Content string     `json:"content"`
	Type    NoticeType `json:"type"`
	Urgent  bool       `json:"urgent"`
}

var notices = []Notice{
	{1, "USAID Agricultural Direct Financing Project", "September 2024",
		"$21 million initiative launched to support 69,000 households across 53,000 hectares. Focus on new technologies and agricultural practices for food security.",
		NoticeFunding, true},
	{2, "Fiscal Year 2025/26 Budget Allocation", "2024",
		"Rs. 57.48 billion allocated to Ministry of Agriculture and Livestock Development. Emphasis on increased production and productivity.",
		NoticeBudget, false},
	{3, "Fertilizer Subsidy Scheme Extended", "2024",
		"50% subsidy on Urea, DAP, and MoP fertilizers continues. Apply at local agricultural office with land certificate.",
		NoticeSubsidy, true},
	{4, "Seed Certification Program", "2024",
		"Free certified seeds available for paddy, maize, and vegetables. Distribution centers open in all districts.",
		NoticeProgram, false},
	{5, "Climate Resilience Training", "2024",
		"Free training workshops on climate-smart agriculture. Register at district agriculture office or online portal.",
		NoticeTraining, false},
	{6, "Minimum Support Price (MSP) Update", "2024",
		"MSP for paddy: NPR 45/kg, Maize: NPR 38/kg, Wheat: NPR 42/kg. Procurement centers operational.",
		NoticePricing, true},
}

// Notices returns urgent notices first, each group in ID order
func Notices() []Notice {
	out := make([]Notice, 0, len(notices))
	for _, n := range notices {
		if n.Urgent {
			out = append(out, n)
		}
	}
	for _, n := range notices {
		if !n.Urgent {
			out = append(out, n)
		}
	}
	return out
}

var ErrLandSize = errors.New("land size must be positive")

type YieldEstimate struct {
	Crop       string  `json:"crop"`
	LandHa     float64 `json:"landHa"`
	PerHectare float64 `json:"perHectare"`
	TotalTons  float64 `json:"totalTons"`
}

// EstimateYield multiplies land by the per-hectare yield. A perHa <= 0
// uses the crop table default. The total is rounded to two decimals.
func EstimateYield(crop string, landHa, perHa float64) (YieldEstimate, error) {
	if !(landHa > 0) || math.IsInf(landHa, 0) {
		return YieldEstimate{}, fmt.Errorf("%w: got %v", ErrLandSize, landHa)
	}
	if !(perHa > 0) || math.IsInf(perHa, 0) {
		perHa = crops.YieldPerHectare(crop)
	}
	return YieldEstimate{
		Crop:       crop,
		LandHa:     landHa,
		PerHectare: perHa,
		TotalTons:  math.Round(landHa*perHa*100) / 100,
	}, nil
}
