package scoring

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize prepares a short objective answer for comparison: lowercase,
// whitespace runs collapsed to single spaces, trimmed, with trailing
// sentence punctuation stripped.
func Normalize(answer string) string {
	n := strings.ToLower(answer)
	n = whitespaceRun.ReplaceAllString(n, " ")
	n = strings.TrimSpace(n)
	n = strings.TrimRight(n, ".,;:")
	return strings.TrimSpace(n)
}

// Compare reports whether a user-submitted text answer matches the
// canonical correct answer. It is meant for short objective responses
// (fill-blank, short answer, option labels), not essays.
//
// The checks run in order and short-circuit on the first match:
// exact match after normalization, whole-word containment when the user
// wrote a significantly longer response, near-total token overlap for
// multi-word answers, and ordered-character similarity for short answers
// with minor typos. Blank input on either side never matches, so an empty
// submission can never score a point.
func Compare(userAnswer, correctAnswer string) bool {
	user := Normalize(userAnswer)
	correct := Normalize(correctAnswer)
	if user == "" || correct == "" {
		return false
	}

	if user == correct {
		return true
	}

	// Containment: only when the user answer is at least twice as long,
	// so a short fragment of a long wrong answer is never accepted.
	// Example: correct "london", user "the city is london".
	if len(user) >= 2*len(correct) {
		if containsWholePhrase(user, correct) {
			return true
		}
		userTokens := tokenSet(user)
		correctTokens := tokenSet(correct)
		if len(correctTokens) > 0 && isSubset(correctTokens, userTokens) && len(userTokens) > len(correctTokens) {
			return true
		}
	}

	// Multi-word overlap: equal-length token sets that agree almost
	// completely. The equal-count requirement keeps superset and subset
	// matches out of this path.
	userWords := strings.Fields(user)
	correctWords := strings.Fields(correct)
	if len(userWords) > 1 && len(correctWords) > 1 && len(userWords) == len(correctWords) {
		if jaccard(tokenSet(user), tokenSet(correct)) >= 0.90 {
			return true
		}
	}

	// Typo tolerance, limited to answers of at most two words where a
	// single-character slip is plausible and the 0.95 bar is meaningful.
	if len(correctWords) <= 2 && len(userWords) <= 2 {
		if orderedSimilarity(user, correct) >= 0.95 {
			return true
		}
	}

	return false
}

// containsWholePhrase reports whether phrase occurs in text delimited by
// word boundaries.
func containsWholePhrase(text, phrase string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func isSubset(sub, super map[string]struct{}) bool {
	for w := range sub {
		if _, ok := super[w]; !ok {
			return false
		}
	}
	return true
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// orderedSimilarity scans the longer string once, advancing through the
// shorter string whenever characters match in sequence, and returns the
// matched fraction of the longer string.
func orderedSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	matches := 0
	idx := 0
	for _, c := range []byte(longer) {
		if idx < len(shorter) && c == shorter[idx] {
			matches++
			idx++
		}
	}
	return float64(matches) / float64(len(longer))
}
