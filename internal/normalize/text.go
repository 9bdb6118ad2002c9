package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Free-text extraction for model responses that ignore the JSON instruction.
// Each matcher returns the value plus the tier it earned: a match inside a
// sentence containing a topical keyword is high, a bare match anywhere is
// medium, and the caller substitutes its default at low.

var (
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	currencyRe = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)`)
	numberRe   = regexp.MustCompile(`(-?\d+(?:\.\d+)?)`)
)

// Percent extracts the first percentage near any of the topical keywords,
// falling back to the first bare percentage in the text.
func Percent(text string, keywords ...string) (float64, Tier, bool) {
	return match(text, percentRe, keywords)
}

// Currency extracts the first dollar amount, stripping thousands separators.
func Currency(text string, keywords ...string) (float64, Tier, bool) {
	return match(text, currencyRe, keywords)
}

// Number extracts the first bare number.
func Number(text string, keywords ...string) (float64, Tier, bool) {
	return match(text, numberRe, keywords)
}

func match(text string, re *regexp.Regexp, keywords []string) (float64, Tier, bool) {
	// Keyword pass: look for a match inside a sentence mentioning the topic.
	for _, sentence := range splitSentences(text) {
		if !containsKeyword(sentence, keywords) {
			continue
		}
		if m := re.FindStringSubmatch(sentence); m != nil {
			if v, err := parseNumber(m[1]); err == nil {
				return v, TierHigh, true
			}
		}
	}

	// Bare pass: first match anywhere.
	if m := re.FindStringSubmatch(text); m != nil {
		if v, err := parseNumber(m[1]); err == nil {
			return v, TierMedium, true
		}
	}

	return 0, TierLow, false
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func containsKeyword(sentence string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(sentence)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// sentenceEndRe splits on terminal punctuation followed by whitespace so
// decimals like 12.5 survive intact.
var sentenceEndRe = regexp.MustCompile(`[.!?]\s+|\n`)

// splitSentences is a cheap splitter; model prose does not need full
// segmentation, just enough locality for the keyword heuristic.
func splitSentences(text string) []string {
	return sentenceEndRe.Split(text, -1)
}
