package fetcher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStripsScriptAndStyle(t *testing.T) {
	html := `<html><head>
		<title>Payroll Tax Rates</title>
		<style>body { color: red; }</style>
	</head><body>
		<script>console.log("tracking");</script>
		<nav>Home | About</nav>
		<p>The rate is 4.85% for wages above the threshold.</p>
		<footer>Copyright</footer>
	</body></html>`

	e := NewContentExtractor()
	content, err := e.Extract([]byte(html))
	require.NoError(t, err)

	assert.Equal(t, "Payroll Tax Rates", content.Title)
	assert.Contains(t, content.Text, "4.85%")
	assert.NotContains(t, content.Text, "console.log")
	assert.NotContains(t, content.Text, "color: red")
	assert.NotContains(t, content.Text, "Home | About")
	assert.NotContains(t, content.Text, "Copyright")
}

func TestExtractDecodesEntities(t *testing.T) {
	html := `<html><body><p>Wages &amp; salaries &gt; $1&nbsp;000</p></body></html>`

	e := NewContentExtractor()
	content, err := e.Extract([]byte(html))
	require.NoError(t, err)

	assert.Contains(t, content.Text, "Wages & salaries")
	assert.Contains(t, content.Text, ">")
}

func TestExtractCollapsesWhitespace(t *testing.T) {
	html := "<html><body><p>one\n\n\ttwo   three</p></body></html>"

	e := NewContentExtractor()
	content, err := e.Extract([]byte(html))
	require.NoError(t, err)

	assert.Equal(t, "one two three", content.Text)
}

func TestExtractTruncates(t *testing.T) {
	long := strings.Repeat("word ", MaxTextLength)
	html := "<html><body><p>" + long + "</p></body></html>"

	e := NewContentExtractor()
	content, err := e.Extract([]byte(html))
	require.NoError(t, err)

	assert.True(t, content.Truncated)
	assert.Len(t, content.Text, MaxTextLength)
	assert.Equal(t, EstimateTokens(content.Text), content.TokenCount)
}

func TestTruncateAtRune(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"within bound", "wages", 10, "wages"},
		{"ascii cut", "wages and salaries", 5, "wages"},
		{"backs off mid-rune", "paid café rates", 8, "paid caf"},
		{"keeps whole rune at boundary", "café", 6, "café"},
		{"multibyte only", "日本語", 4, "日"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateAtRune(tt.text, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestExtractTruncationPreservesValidUTF8(t *testing.T) {
	// Fill past the bound with 2-byte runes so the cut lands mid-character.
	long := strings.Repeat("é", MaxTextLength)
	html := "<html><body><p>" + long + "</p></body></html>"

	e := NewContentExtractor()
	content, err := e.Extract([]byte(html))
	require.NoError(t, err)

	assert.True(t, content.Truncated)
	assert.True(t, utf8.ValidString(content.Text))
	assert.LessOrEqual(t, len(content.Text), MaxTextLength)
}

func TestExtractTitleFallsBackToOGTitle(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Award Rates 2026"/>
	</head><body><p>content body</p></body></html>`

	e := NewContentExtractor()
	content, err := e.Extract([]byte(html))
	require.NoError(t, err)

	assert.Equal(t, "Award Rates 2026", content.Title)
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"exact multiple", strings.Repeat("a", 8), 2},
		{"rounds up", strings.Repeat("a", 9), 3},
		{"single char", "a", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}
