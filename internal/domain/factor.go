// Package domain provides domain models for GreenLedger.
//
// Import Path: greenledger.io/greenledger/internal/domain
package domain

// Language selects which bilingual variant of a factor's display fields is used.
type Language string

const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
)

// ParseLanguage maps a caller-supplied language code to a Language.
// Anything other than "fr" selects the English variant.
func ParseLanguage(code string) Language {
	if Language(code) == LanguageFR {
		return LanguageFR
	}
	return LanguageEN
}

// FactorStatus is the publication status of an emission factor.
type FactorStatus string

const (
	FactorStatusValid    FactorStatus = "valid"
	FactorStatusArchived FactorStatus = "archived"
	FactorStatusOther    FactorStatus = "other"
)

// Factor is one standardized emission factor from the ADEME Base Carbone.
//
// Factors are built once by the catalog loader and shared read-only between
// the search index and its callers. They must not be modified after load.
type Factor struct {
	ID     string `json:"id"`
	NameFR string `json:"name_fr"`
	NameEN string `json:"name_en"`

	// Value is the total emission in kgCO2e per declared unit. Negative values
	// represent avoided emissions (recycling credits).
	Value  float64 `json:"factor"`
	UnitFR string  `json:"unit_fr"`
	UnitEN string  `json:"unit_en"`

	Category string `json:"category"`
	TagsFR   string `json:"tags_fr"`
	TagsEN   string `json:"tags_en"`

	Source             string       `json:"source"`
	GeographicLocation string       `json:"geographic_location"`
	ValidityPeriod     string       `json:"validity_period"`
	Status             FactorStatus `json:"status"`
	// StatusLabel is the status exactly as published (e.g. "Valide générique").
	StatusLabel string `json:"status_label"`

	// Gas breakdown. Nil means the source left the column empty.
	CO2Fossil *float64 `json:"co2_fossil"`
	CH4Fossil *float64 `json:"ch4_fossil"`
	CH4Bio    *float64 `json:"ch4_bio"`
	N2O       *float64 `json:"n2o"`
	CO2Bio    *float64 `json:"co2_bio"`
	OtherGHG  *float64 `json:"other_ghg"`

	CommentFR string `json:"comment_fr,omitempty"`
	CommentEN string `json:"comment_en,omitempty"`
}

// Name returns the display name for lang.
func (f *Factor) Name(lang Language) string {
	if lang == LanguageFR {
		return f.NameFR
	}
	return f.NameEN
}

// Tags returns the tag string for lang.
func (f *Factor) Tags(lang Language) string {
	if lang == LanguageFR {
		return f.TagsFR
	}
	return f.TagsEN
}

// Unit returns the declared unit for lang.
func (f *Factor) Unit(lang Language) string {
	if lang == LanguageFR {
		return f.UnitFR
	}
	return f.UnitEN
}

// Archived reports whether the factor has been withdrawn by its publisher.
func (f *Factor) Archived() bool {
	return f.Status == FactorStatusArchived
}

// ScoredFactor is a search hit with its relevance score.
type ScoredFactor struct {
	Factor *Factor `json:"factor"`
	Score  float64 `json:"score"`
}
