// Package confidence scores AI-generated answers for trustworthiness using a
// deterministic heuristic over tool-call evidence and the response text.
// Escalation to human review is compliance-sensitive, so the formula is
// transparent and unit-testable rather than learned.
package confidence

import (
	"regexp"
	"strings"
)

// Scoring weights and bounds.
const (
	baseScore          = 0.5
	citationWeight     = 0.1
	citationBonusMax   = 0.3
	relevanceWeight    = 0.2
	externalDataBonus  = 0.15
	hedgeWeight        = 0.05
	hedgePenaltyMax    = 0.3
	shortAnswerPenalty = 0.1
	shortAnswerLength  = 100
)

// DefaultReviewThreshold is the score below which an answer is escalated.
const DefaultReviewThreshold = 0.6

// hedgePattern matches a fixed vocabulary of uncertainty markers, whole
// words only. Longer phrases come first so they win over their prefixes.
var hedgePattern = regexp.MustCompile(`\b(might be|may be|could be|not sure|i think|i believe|i guess|it depends|it seems|hard to say|might|maybe|probably|possibly|perhaps|unclear|uncertain|unsure)\b`)

// ToolCall is one tool invocation observed in a conversational turn. The
// union is closed: the scorer depends on the concrete shapes below.
type ToolCall interface {
	toolCall()
}

// SearchToolResult is one ranked hit returned by a search tool call.
type SearchToolResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Category       string  `json:"category"`
	RelevanceScore float64 `json:"relevance_score"`
}

// SearchToolCall is one invocation of the regulatory-document search tool.
type SearchToolCall struct {
	Success bool               `json:"success"`
	Results []SearchToolResult `json:"results"`
}

func (SearchToolCall) toolCall() {}

// LedgerToolCall is one invocation of an external accounting-system lookup.
type LedgerToolCall struct {
	Success bool `json:"success"`
}

func (LedgerToolCall) toolCall() {}

// Citation is one source backing an answer.
type Citation struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Assessment is the scored outcome for one answer turn.
type Assessment struct {
	Score       float64    `json:"score"`
	Citations   []Citation `json:"citations"`
	NeedsReview bool       `json:"needs_review"`
}

// Assess scores an answer against its tool-call evidence and decides whether
// it needs human review at the default threshold.
func Assess(text string, calls []ToolCall) Assessment {
	score := Score(text, calls)
	return Assessment{
		Score:       score,
		Citations:   ExtractCitations(calls),
		NeedsReview: RequiresHumanReview(score, DefaultReviewThreshold),
	}
}

// Score computes the confidence score for one answer turn.
//
// Starting from a neutral base, grounded evidence raises the score: each
// successful search call, the average relevance of everything those calls
// returned, and any successful external-data lookup. Uncertainty lowers it:
// hedging language and very short answers. The result is clamped to [0, 1].
func Score(text string, calls []ToolCall) float64 {
	score := baseScore

	searchCalls, relevanceSum, resultCount, externalData := summarizeCalls(calls)

	score += min(float64(searchCalls)*citationWeight, citationBonusMax)

	if resultCount > 0 {
		score += (relevanceSum / float64(resultCount)) * relevanceWeight
	}

	if externalData {
		score += externalDataBonus
	}

	score -= HedgingPenalty(text)

	if len(text) < shortAnswerLength {
		score -= shortAnswerPenalty
	}

	return clamp(score)
}

// HedgingPenalty counts whole-word hedging matches in the text and converts
// them to a capped penalty.
func HedgingPenalty(text string) float64 {
	matches := hedgePattern.FindAllString(strings.ToLower(text), -1)
	return min(float64(len(matches))*hedgeWeight, hedgePenaltyMax)
}

// RequiresHumanReview reports whether a score falls below the review
// threshold.
func RequiresHumanReview(score, threshold float64) bool {
	return score < threshold
}

// ExtractCitations collects the sources backing an answer from successful
// search calls, deduplicated by URL in first-seen order.
func ExtractCitations(calls []ToolCall) []Citation {
	seen := make(map[string]bool)
	var citations []Citation

	for _, call := range calls {
		search, ok := call.(SearchToolCall)
		if !ok || !search.Success {
			continue
		}

		for _, result := range search.Results {
			if result.URL == "" || seen[result.URL] {
				continue
			}
			seen[result.URL] = true
			citations = append(citations, Citation{
				Title:    result.Title,
				URL:      result.URL,
				Category: result.Category,
			})
		}
	}

	return citations
}

// summarizeCalls folds the tool-call evidence into the inputs the formula
// needs: successful search call count, relevance totals, and whether any
// external-data lookup succeeded.
func summarizeCalls(calls []ToolCall) (searchCalls int, relevanceSum float64, resultCount int, externalData bool) {
	for _, call := range calls {
		switch c := call.(type) {
		case SearchToolCall:
			if !c.Success {
				continue
			}
			searchCalls++
			for _, result := range c.Results {
				relevanceSum += result.RelevanceScore
				resultCount++
			}
		case LedgerToolCall:
			if c.Success {
				externalData = true
			}
		}
	}

	return searchCalls, relevanceSum, resultCount, externalData
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
