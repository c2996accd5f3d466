package handlers

import (
	"math"

	"greenledger.io/greenledger/internal/domain"
)

// factorSummary is a search hit as returned to the factor picker.
type factorSummary struct {
	ID                 string   `json:"id"`
	NameFR             string   `json:"name_fr"`
	NameEN             string   `json:"name_en"`
	Factor             float64  `json:"factor"`
	UnitFR             string   `json:"unit_fr"`
	UnitEN             string   `json:"unit_en"`
	Category           string   `json:"category"`
	Source             string   `json:"source"`
	GeographicLocation string   `json:"geographic_location"`
	ValidityPeriod     string   `json:"validity_period"`
	Status             string   `json:"status"`
	CO2Fossil          *float64 `json:"co2_fossil"`
	CH4Fossil          *float64 `json:"ch4_fossil"`
	N2O                *float64 `json:"n2o"`
	TagsFR             string   `json:"tags_fr"`
	Score              float64  `json:"score,omitempty"`
}

// factorDetail carries the full gas breakdown and comment.
type factorDetail struct {
	factorSummary
	CH4Bio    *float64 `json:"ch4_bio"`
	CO2Bio    *float64 `json:"co2_bio"`
	OtherGHG  *float64 `json:"other_ghg"`
	CommentFR string   `json:"comment_fr"`
}

func toFactorSummary(f *domain.Factor) factorSummary {
	return factorSummary{
		ID:                 f.ID,
		NameFR:             f.NameFR,
		NameEN:             f.NameEN,
		Factor:             f.Value,
		UnitFR:             f.UnitFR,
		UnitEN:             f.UnitEN,
		Category:           f.Category,
		Source:             f.Source,
		GeographicLocation: f.GeographicLocation,
		ValidityPeriod:     f.ValidityPeriod,
		Status:             f.StatusLabel,
		CO2Fossil:          f.CO2Fossil,
		CH4Fossil:          f.CH4Fossil,
		N2O:                f.N2O,
		TagsFR:             f.TagsFR,
	}
}

func toFactorDetail(f *domain.Factor) factorDetail {
	return factorDetail{
		factorSummary: toFactorSummary(f),
		CH4Bio:        f.CH4Bio,
		CO2Bio:        f.CO2Bio,
		OtherGHG:      f.OtherGHG,
		CommentFR:     f.CommentFR,
	}
}

func toFactorSummaries(factors []*domain.Factor) []factorSummary {
	out := make([]factorSummary, len(factors))
	for i, f := range factors {
		out[i] = toFactorSummary(f)
	}
	return out
}

// roundScore rounds to three decimals, half away from zero.
func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
