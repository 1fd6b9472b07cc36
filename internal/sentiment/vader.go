package sentiment

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Analyzer scores post text with the VADER lexicon. It is stateless
// after construction and safe for use across concurrent ingestion runs.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// RemoveLinks strips markdown links down to their text and drops bare
// URLs entirely; URLs carry no sentiment and skew the lexicon pass.
func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	input = urlPattern.ReplaceAllString(input, "")

	return input
}

// ConvertMarkdownToText renders any markdown in a post to plain text.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(string(output)), " ")

	return RemoveLinks(plainText)
}

// Score returns the compound polarity of text in [-1, 1]. Empty or
// whitespace-only input scores 0 without error, so rows with a missing
// post column land in the neutral bucket.
func (a *Analyzer) Score(text string) float64 {
	plainText := ConvertMarkdownToText(text)
	if strings.TrimSpace(plainText) == "" {
		return 0
	}

	score := a.vader.PolarityScores(plainText).Compound

	return math.Max(-1, math.Min(1, score))
}
