// Package catalogue parses the regulatory source catalogue into typed source
// descriptors. The catalogue is a structured text file with nested headings
// (country, section, subsection) followed by labeled bullet metadata.
//
// The parser fails soft: malformed or partial entries are silently dropped,
// and any read failure yields an empty list. Callers must treat "no sources"
// as a valid, if unproductive, outcome.
package catalogue

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/ledgerkeep/regwatch/internal/domain"
)

// Heading prefixes in the catalogue file.
const (
	countryPrefix    = "# "
	sectionPrefix    = "## "
	subsectionPrefix = "### "
	bulletPrefix     = "- "
)

// Labels recognised in bullet metadata. Unrecognised labels are ignored.
const (
	labelURL       = "url"
	labelType      = "type"
	labelFrequency = "frequency"
	labelPriority  = "priority"
	labelCategory  = "category"
)

// Defaults applied when an entry omits an enum field.
const (
	defaultPriority  = domain.PriorityMedium
	defaultCategory  = domain.CategoryCustom
	defaultFrequency = domain.FrequencyMonthly
)

// LoadFile reads and parses the catalogue at path. Returns an empty list on
// any read failure.
func LoadFile(path string) []domain.Source {
	f, err := os.Open(path)
	if err != nil {
		return []domain.Source{}
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads the catalogue text and returns the flat list of complete
// source descriptors it contains.
func Parse(r io.Reader) []domain.Source {
	var (
		sources []domain.Source
		state   parseState
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		state.consumeLine(scanner.Text(), &sources)
	}
	if scanner.Err() != nil {
		return []domain.Source{}
	}

	state.flush(&sources)

	return sources
}

// Filter returns the sources matching every supplied filter dimension.
func Filter(sources []domain.Source, f domain.SourceFilter) []domain.Source {
	matched := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		if f.Matches(s) {
			matched = append(matched, s)
		}
	}
	return matched
}

// parseState tracks the heading context and the entry under construction.
type parseState struct {
	country    string
	section    string
	subsection string

	pending    domain.Source
	hasPending bool
}

// consumeLine advances the parser by one catalogue line.
func (st *parseState) consumeLine(raw string, out *[]domain.Source) {
	line := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(line, subsectionPrefix):
		st.flush(out)
		st.subsection = strings.TrimSpace(strings.TrimPrefix(line, subsectionPrefix))
	case strings.HasPrefix(line, sectionPrefix):
		st.flush(out)
		st.section = strings.TrimSpace(strings.TrimPrefix(line, sectionPrefix))
		st.subsection = ""
	case strings.HasPrefix(line, countryPrefix):
		st.flush(out)
		st.country = countryCode(strings.TrimPrefix(line, countryPrefix))
		st.section = ""
		st.subsection = ""
	case strings.HasPrefix(line, bulletPrefix):
		st.consumeBullet(strings.TrimPrefix(line, bulletPrefix), out)
	case line == "":
		st.flush(out)
	}
}

// consumeBullet applies one "Label: value" bullet to the pending entry.
// A URL bullet starts a new entry, flushing any previous one.
func (st *parseState) consumeBullet(bullet string, out *[]domain.Source) {
	label, value, ok := strings.Cut(bullet, ":")
	if !ok {
		return
	}

	label = strings.ToLower(strings.TrimSpace(label))
	value = strings.TrimSpace(value)

	if value == "" {
		return
	}

	if label == labelURL {
		st.flush(out)
		st.pending = domain.Source{
			Country:         st.country,
			Section:         st.section,
			Subsection:      st.subsection,
			URL:             value,
			UpdateFrequency: defaultFrequency,
			Priority:        defaultPriority,
			Category:        defaultCategory,
		}
		st.hasPending = true
		return
	}

	if !st.hasPending {
		return
	}

	switch label {
	case labelType:
		st.pending.SourceType = value
	case labelFrequency:
		if freq, ok := parseFrequency(value); ok {
			st.pending.UpdateFrequency = freq
		}
	case labelPriority:
		if prio, ok := parsePriority(value); ok {
			st.pending.Priority = prio
		}
	case labelCategory:
		if cat, ok := parseCategory(value); ok {
			st.pending.Category = cat
		}
	}
}

// flush emits the pending entry if it is complete. Entries without a URL or
// a country context are dropped.
func (st *parseState) flush(out *[]domain.Source) {
	if !st.hasPending {
		return
	}
	if st.pending.URL != "" && st.pending.Country != "" {
		*out = append(*out, st.pending)
	}
	st.pending = domain.Source{}
	st.hasPending = false
}

// countryCode extracts the country code from a country heading. Accepts
// either a bare code ("AU") or "Name (AU)" form.
func countryCode(heading string) string {
	heading = strings.TrimSpace(heading)

	if open := strings.LastIndex(heading, "("); open != -1 {
		if end := strings.Index(heading[open:], ")"); end != -1 {
			return strings.ToUpper(strings.TrimSpace(heading[open+1 : open+end]))
		}
	}

	if fields := strings.Fields(heading); len(fields) == 1 {
		return strings.ToUpper(fields[0])
	}

	return strings.ToUpper(heading)
}

func parsePriority(value string) (domain.Priority, bool) {
	switch domain.Priority(strings.ToLower(value)) {
	case domain.PriorityHigh:
		return domain.PriorityHigh, true
	case domain.PriorityMedium:
		return domain.PriorityMedium, true
	case domain.PriorityLow:
		return domain.PriorityLow, true
	default:
		return "", false
	}
}

func parseCategory(value string) (domain.Category, bool) {
	switch domain.Category(strings.ToLower(value)) {
	case domain.CategoryAward:
		return domain.CategoryAward, true
	case domain.CategoryTaxRuling:
		return domain.CategoryTaxRuling, true
	case domain.CategoryPayrollTax:
		return domain.CategoryPayrollTax, true
	case domain.CategoryCustom:
		return domain.CategoryCustom, true
	default:
		return "", false
	}
}

func parseFrequency(value string) (domain.UpdateFrequency, bool) {
	switch domain.UpdateFrequency(strings.ToLower(value)) {
	case domain.FrequencyDaily:
		return domain.FrequencyDaily, true
	case domain.FrequencyWeekly:
		return domain.FrequencyWeekly, true
	case domain.FrequencyMonthly:
		return domain.FrequencyMonthly, true
	case domain.FrequencyQuarterly:
		return domain.FrequencyQuarterly, true
	case domain.FrequencyAnnually:
		return domain.FrequencyAnnually, true
	default:
		return "", false
	}
}
