// Package domain provides domain models used across the application.
package domain

// Priority indicates how important a source is relative to others.
type Priority string

const (
	// PriorityHigh marks sources that must be checked most frequently.
	PriorityHigh Priority = "high"
	// PriorityMedium marks sources of moderate importance.
	PriorityMedium Priority = "medium"
	// PriorityLow marks sources that tolerate stale data.
	PriorityLow Priority = "low"
)

// Category classifies the kind of regulatory content a source publishes.
type Category string

const (
	// CategoryAward covers industrial awards and pay guides.
	CategoryAward Category = "award"
	// CategoryTaxRuling covers tax office rulings and determinations.
	CategoryTaxRuling Category = "tax_ruling"
	// CategoryPayrollTax covers state payroll tax pages.
	CategoryPayrollTax Category = "payroll_tax"
	// CategoryCustom covers anything outside the fixed taxonomy.
	CategoryCustom Category = "custom"
)

// UpdateFrequency describes how often a source is expected to change.
type UpdateFrequency string

const (
	// FrequencyDaily sources change often enough to check every day.
	FrequencyDaily UpdateFrequency = "daily"
	// FrequencyWeekly sources change on a weekly cadence.
	FrequencyWeekly UpdateFrequency = "weekly"
	// FrequencyMonthly sources change roughly monthly.
	FrequencyMonthly UpdateFrequency = "monthly"
	// FrequencyQuarterly sources change a few times a year.
	FrequencyQuarterly UpdateFrequency = "quarterly"
	// FrequencyAnnually sources change around once a year.
	FrequencyAnnually UpdateFrequency = "annually"
)

// Source describes one regulatory page in the catalogue: where to fetch it,
// how often, and with what priority. Sources are re-derived from the
// catalogue on each run and are immutable once built.
type Source struct {
	Country         string          `json:"country"`
	Section         string          `json:"section"`
	Subsection      string          `json:"subsection,omitempty"`
	SourceType      string          `json:"source_type"`
	URL             string          `json:"url"`
	UpdateFrequency UpdateFrequency `json:"update_frequency"`
	Priority        Priority        `json:"priority"`
	Category        Category        `json:"category"`
}

// SourceFilter narrows the catalogue to sources matching every supplied
// dimension. A zero value matches everything.
type SourceFilter struct {
	Country  string   `json:"country,omitempty"`
	Category Category `json:"category,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

// Matches reports whether the source satisfies every non-empty filter
// dimension (AND semantics across dimensions).
func (f SourceFilter) Matches(s Source) bool {
	if f.Country != "" && s.Country != f.Country {
		return false
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.Priority != "" && s.Priority != f.Priority {
		return false
	}
	return true
}

// IsZero reports whether no filter dimension was supplied.
func (f SourceFilter) IsZero() bool {
	return f.Country == "" && f.Category == "" && f.Priority == ""
}
