// Package match implements exact, word-boundary keyword matching over
// item titles and bodies. A keyword only matches when the runes
// immediately before and after the matched span are not letters, digits
// or underscores, so "AI" never matches inside "CHAIN". Matching is
// case-insensitive; multi-word keywords match as contiguous phrases
// under the same boundary rule.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/keywordpulse/backend/internal/model"
)

type Matcher struct {
	keywords []string
	lowered  []string
}

func NewMatcher(keywords []string) *Matcher {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return &Matcher{keywords: keywords, lowered: lowered}
}

// Match produces a MatchResult for the item. Items with zero hits still
// produce an all-false result; dropping them is a downstream decision.
func (m *Matcher) Match(item model.RawItem) model.MatchResult {
	title := strings.ToLower(item.Title)
	body := strings.ToLower(item.Body)

	hits := make(map[string]model.KeywordHit, len(m.keywords))
	perKeyword := make(map[string]float64, len(m.keywords))
	totalOccurrences := 0
	words := len(strings.Fields(title + " " + body))

	for i, kw := range m.keywords {
		lowered := m.lowered[i]
		if lowered == "" {
			hits[kw] = model.KeywordHit{}
			continue
		}

		titleOffsets := findOccurrences(title, lowered)
		bodyOffsets := findOccurrences(body, lowered)

		hit := model.KeywordHit{
			Found:        len(titleOffsets) > 0 || len(bodyOffsets) > 0,
			TitleCount:   len(titleOffsets),
			BodyCount:    len(bodyOffsets),
			TitleOffsets: titleOffsets,
			BodyOffsets:  bodyOffsets,
		}
		hits[kw] = hit
		totalOccurrences += hit.TitleCount + hit.BodyCount
		perKeyword[kw] = density(words, hit.TitleCount+hit.BodyCount)
	}

	return model.MatchResult{
		Keywords:       append([]string(nil), m.keywords...),
		Hits:           hits,
		Density:        density(words, totalOccurrences),
		KeywordDensity: perKeyword,
	}
}

// findOccurrences returns the byte offsets of every boundary-safe
// occurrence of keyword in text. Both inputs must already be lowercased.
func findOccurrences(text, keyword string) []int {
	var offsets []int

	for start := 0; start < len(text); {
		idx := strings.Index(text[start:], keyword)
		if idx < 0 {
			break
		}
		pos := start + idx
		end := pos + len(keyword)

		if boundaryBefore(text, pos) && boundaryAfter(text, end) {
			offsets = append(offsets, pos)
			start = end
			continue
		}
		start = pos + 1
	}

	return offsets
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func density(words, occurrences int) float64 {
	if words == 0 || occurrences == 0 {
		return 0
	}
	return float64(occurrences) / float64(words) * 100
}
