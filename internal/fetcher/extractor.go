package fetcher

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Extraction limits.
const (
	// MaxTextLength bounds the extracted text passed downstream.
	MaxTextLength = 50_000
	// tokenCharRatio approximates characters per token.
	tokenCharRatio = 4
)

// nonContentSelectors lists elements stripped before extracting text.
const nonContentSelectors = "script, style, noscript, nav, header, footer"

// ExtractedContent is the text representation of one fetched page.
type ExtractedContent struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	Truncated  bool   `json:"truncated"`
}

// ContentExtractor turns raw HTML into normalized plain text using goquery.
type ContentExtractor struct {
	maxLength int
}

// NewContentExtractor creates an extractor with the default length bound.
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{maxLength: MaxTextLength}
}

// Extract parses HTML, strips non-content elements, collapses whitespace,
// and truncates to the configured bound. HTML entities are decoded as part
// of parsing.
func (e *ContentExtractor) Extract(body []byte) (*ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	content := &ExtractedContent{
		Title: extractPageTitle(doc),
	}

	text := extractBodyText(doc)
	text = collapseWhitespace(text)

	if len(text) > e.maxLength {
		text = truncateAtRune(text, e.maxLength)
		content.Truncated = true
	}

	content.Text = text
	content.TokenCount = EstimateTokens(text)

	return content, nil
}

// EstimateTokens approximates the token count as ceil(characters / 4).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + tokenCharRatio - 1) / tokenCharRatio
}

// extractPageTitle extracts the page title, preferring <title> then og:title.
func extractPageTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}

	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
		return strings.TrimSpace(ogTitle)
	}

	return ""
}

// extractBodyText extracts text from <body> with non-content elements
// stripped, falling back to the whole document when no body is present.
func extractBodyText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() > 0 {
		body.Find(nonContentSelectors).Remove()
		return body.Text()
	}

	doc.Find(nonContentSelectors).Remove()
	return doc.Text()
}

// collapseWhitespace reduces any whitespace run to a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateAtRune cuts s to at most n bytes without splitting a multibyte
// character.
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
