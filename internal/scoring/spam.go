package scoring

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/keywordpulse/backend/internal/model"
)

var promotionalPhrases = []string{
	"buy now", "click here", "free money", "make money fast",
	"limited time", "act now", "guaranteed", "no scam",
	"work from home", "earn $", "get rich", "miracle",
	"weight loss", "lose weight fast", "casino",
	"lottery", "winner", "congratulations", "selected",
}

var (
	shortenerPattern  = regexp.MustCompile(`bit\.ly|tinyurl|shortlink`)
	numericRunPattern = regexp.MustCompile(`\d{3,}`)
)

// SpamScorer combines weighted heuristic indicators (promotional
// phrases, shouting, link shorteners, throwaway-looking authors) into a
// 0-100 probability and a three-bucket class.
type SpamScorer struct {
	mediumThreshold float64
	highThreshold   float64
}

func NewSpamScorer(mediumThreshold, highThreshold float64) *SpamScorer {
	if mediumThreshold <= 0 {
		mediumThreshold = 33.0
	}
	if highThreshold <= mediumThreshold {
		highThreshold = 66.0
	}
	return &SpamScorer{mediumThreshold: mediumThreshold, highThreshold: highThreshold}
}

func (s *SpamScorer) Name() string { return "spam" }

func (s *SpamScorer) Score(item model.RawItem, _ model.MatchResult, _ time.Time, bundle *model.ScoreBundle) {
	fullText := strings.TrimSpace(item.Title + " " + item.Body)
	lowered := strings.ToLower(fullText)

	phraseCount := 0
	for _, phrase := range promotionalPhrases {
		if strings.Contains(lowered, phrase) {
			phraseCount++
		}
	}

	capsRatio, digitRatio := characterRatios(fullText)
	shoutyPunctuation := strings.Count(fullText, "!")+strings.Count(fullText, "?") > 5

	urlCount := len(urlPattern.FindAllString(lowered, -1))
	suspiciousURLs := shortenerPattern.MatchString(lowered)

	suspiciousAuthor := item.Author == "[deleted]" ||
		len(item.Author) > 20 ||
		numericRunPattern.MatchString(item.Author)

	indicators := []float64{
		clamp(float64(phraseCount)/3, 0, 1),
		clamp(capsRatio*5, 0, 1),
		boolIndicator(shoutyPunctuation),
		clamp(digitRatio*10, 0, 1),
		clamp(float64(urlCount)/2, 0, 1),
		boolIndicator(suspiciousURLs),
		authorIndicator(suspiciousAuthor),
	}

	sum := 0.0
	for _, indicator := range indicators {
		sum += indicator
	}
	probability := sum / float64(len(indicators)) * 100

	class := model.SpamLow
	switch {
	case probability >= s.highThreshold:
		class = model.SpamHigh
	case probability >= s.mediumThreshold:
		class = model.SpamMedium
	}

	bundle.Spam = &model.SpamScore{
		Class:       class,
		Probability: probability,
	}
}

func characterRatios(text string) (caps, digits float64) {
	if text == "" {
		return 0, 0
	}

	var upper, digit, total int
	for _, r := range text {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
		if unicode.IsDigit(r) {
			digit++
		}
	}
	return float64(upper) / float64(total), float64(digit) / float64(total)
}

func boolIndicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func authorIndicator(suspicious bool) float64 {
	if suspicious {
		return 0.3
	}
	return 0
}
