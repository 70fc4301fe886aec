package catalogue_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/regwatch/internal/catalogue"
	"github.com/ledgerkeep/regwatch/internal/domain"
)

const sampleCatalogue = `# Australia (AU)

## Fair Work

### Modern Awards

- url: https://example.gov.au/awards/hospitality
- type: award_page
- frequency: quarterly
- priority: high
- category: award

- url: https://example.gov.au/awards/retail
- type: award_page
- frequency: quarterly
- priority: medium
- category: award

## Taxation

- url: https://example.gov.au/tax/rulings
- type: ruling_index
- frequency: weekly
- priority: high
- category: tax_ruling

# New Zealand (NZ)

## Employment

- url: https://example.govt.nz/minimum-wage
- type: guidance
- frequency: annually
- priority: low
- category: payroll_tax
`

func TestParse(t *testing.T) {
	sources := catalogue.Parse(strings.NewReader(sampleCatalogue))
	require.Len(t, sources, 4)

	first := sources[0]
	assert.Equal(t, "AU", first.Country)
	assert.Equal(t, "Fair Work", first.Section)
	assert.Equal(t, "Modern Awards", first.Subsection)
	assert.Equal(t, "award_page", first.SourceType)
	assert.Equal(t, "https://example.gov.au/awards/hospitality", first.URL)
	assert.Equal(t, domain.FrequencyQuarterly, first.UpdateFrequency)
	assert.Equal(t, domain.PriorityHigh, first.Priority)
	assert.Equal(t, domain.CategoryAward, first.Category)

	tax := sources[2]
	assert.Equal(t, "AU", tax.Country)
	assert.Equal(t, "Taxation", tax.Section)
	assert.Empty(t, tax.Subsection, "subsection should reset on new section")
	assert.Equal(t, domain.CategoryTaxRuling, tax.Category)

	nz := sources[3]
	assert.Equal(t, "NZ", nz.Country)
	assert.Equal(t, "Employment", nz.Section)
	assert.Equal(t, domain.PriorityLow, nz.Priority)
}

func TestParseDropsPartialEntries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name: "entry without url is dropped",
			input: `# AU
## Tax
- type: ruling_index
- priority: high
`,
			want: 0,
		},
		{
			name: "entry without country context is dropped",
			input: `## Tax
- url: https://example.gov.au/tax
`,
			want: 0,
		},
		{
			name: "valid entry survives surrounding malformed ones",
			input: `# AU
## Tax
- priority: high
- url: https://example.gov.au/tax
- category: tax_ruling
- not a labeled bullet
`,
			want: 1,
		},
		{
			name:  "empty input",
			input: "",
			want:  0,
		},
		{
			name:  "garbage input",
			input: "%%%\n\t\x00???\n",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := catalogue.Parse(strings.NewReader(tt.input))
			assert.Len(t, sources, tt.want)
		})
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	input := `# AU
## Tax
- url: https://example.gov.au/tax
- frequency: fortnightly
- priority: urgent
- category: unknown_kind
`

	sources := catalogue.Parse(strings.NewReader(input))
	require.Len(t, sources, 1)

	s := sources[0]
	assert.Equal(t, domain.FrequencyMonthly, s.UpdateFrequency)
	assert.Equal(t, domain.PriorityMedium, s.Priority)
	assert.Equal(t, domain.CategoryCustom, s.Category)
}

func TestParseURLKeepsScheme(t *testing.T) {
	input := `# AU
## Tax
- url: https://example.gov.au/tax?year=2026
`

	sources := catalogue.Parse(strings.NewReader(input))
	require.Len(t, sources, 1)
	assert.Equal(t, "https://example.gov.au/tax?year=2026", sources[0].URL)
}

func TestLoadFileMissingReturnsEmpty(t *testing.T) {
	sources := catalogue.LoadFile("/nonexistent/catalogue.md")
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestFilter(t *testing.T) {
	sources := catalogue.Parse(strings.NewReader(sampleCatalogue))
	require.Len(t, sources, 4)

	tests := []struct {
		name   string
		filter domain.SourceFilter
		want   int
	}{
		{"no filter matches all", domain.SourceFilter{}, 4},
		{"country only", domain.SourceFilter{Country: "AU"}, 3},
		{"country and category", domain.SourceFilter{Country: "AU", Category: domain.CategoryAward}, 2},
		{"all dimensions AND", domain.SourceFilter{Country: "AU", Category: domain.CategoryAward, Priority: domain.PriorityHigh}, 1},
		{"disjoint dimensions match nothing", domain.SourceFilter{Country: "NZ", Category: domain.CategoryAward}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalogue.Filter(sources, tt.filter)
			assert.Len(t, got, tt.want)

			for _, s := range got {
				assert.True(t, tt.filter.Matches(s))
			}
		})
	}
}
