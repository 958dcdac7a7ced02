package scoring

import (
	"regexp"
	"strings"
	"time"

	prose "github.com/jdkato/prose/v2"

	"github.com/keywordpulse/backend/internal/model"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

var (
	imageMarkers = []string{"image", "photo", "pic", "screenshot"}
	videoMarkers = []string{"video", "youtube", "watch", "clip"}
)

// ContentScorer measures textual quality: body word count, a
// words-per-sentence readability figure and a coarse content-type
// classification from URL presence and media markers.
type ContentScorer struct{}

func NewContentScorer() *ContentScorer {
	return &ContentScorer{}
}

func (s *ContentScorer) Name() string { return "content" }

func (s *ContentScorer) Score(item model.RawItem, _ model.MatchResult, _ time.Time, bundle *model.ScoreBundle) {
	fullText := strings.TrimSpace(item.Title + " " + item.Body)

	wordCount := len(strings.Fields(item.Body))
	sentenceCount := countSentences(fullText)

	readability := 0.0
	totalWords := len(strings.Fields(fullText))
	if totalWords > 0 && sentenceCount > 0 {
		readability = float64(totalWords) / float64(sentenceCount)
	}

	hasLink := item.ExternalURL != "" || urlPattern.MatchString(item.Body)

	bundle.Content = &model.ContentScore{
		WordCount:       wordCount,
		SentenceCount:   sentenceCount,
		Readability:     readability,
		Type:            classifyContent(item, fullText, hasLink),
		HasExternalLink: hasLink,
	}
}

// countSentences prefers prose's segmenter and falls back to a
// punctuation split when the document fails to build.
func countSentences(text string) int {
	if text == "" {
		return 0
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err == nil {
		return len(doc.Sentences())
	}

	count := 0
	for _, part := range regexp.MustCompile(`[.!?]+`).Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

func classifyContent(item model.RawItem, fullText string, hasLink bool) model.ContentType {
	// The source's own hint wins when it names a media type.
	switch {
	case item.ContentHint == "image":
		return model.ContentImage
	case strings.Contains(item.ContentHint, "video"):
		return model.ContentVideo
	}

	if hasLink {
		return model.ContentLink
	}

	lowered := strings.ToLower(fullText)
	for _, marker := range imageMarkers {
		if strings.Contains(lowered, marker) {
			return model.ContentImage
		}
	}
	for _, marker := range videoMarkers {
		if strings.Contains(lowered, marker) {
			return model.ContentVideo
		}
	}

	return model.ContentText
}
