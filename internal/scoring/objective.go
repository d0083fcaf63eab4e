package scoring

import (
	"log/slog"
	"strings"

	"github.com/hdnguyen/bandexam/internal/model"
)

// matchingPair is one sub-item of a matching question, parsed from a
// correct-answer encoding such as "A:i, B:ii".
type matchingPair struct {
	Item     string
	Expected string
}

// parseMatchingPairs splits a matching correct answer into ordered
// item→expected pairs. It returns nil when the encoding does not contain
// at least two pairs, in which case the answer is compared as plain text.
func parseMatchingPairs(correct string) []matchingPair {
	parts := strings.Split(correct, ",")
	var pairs []matchingPair
	for _, p := range parts {
		item, expected, ok := strings.Cut(p, ":")
		if !ok {
			return nil
		}
		item = strings.TrimSpace(item)
		expected = strings.TrimSpace(expected)
		if item == "" || expected == "" {
			return nil
		}
		pairs = append(pairs, matchingPair{Item: item, Expected: expected})
	}
	if len(pairs) < 2 {
		return nil
	}
	return pairs
}

// ScoreListening grades the listening skill of a phase: every question in
// every section, one point per item, band via the conversion table.
func ScoreListening(content *model.ListeningContent, answers map[string]string) *model.ObjectiveScore {
	var groups []scoredGroup
	for _, sec := range content.Sections {
		groups = append(groups, scoredGroup{id: sec.ID, questions: sec.Questions})
	}
	return scoreObjective(groups, answers, func(groupID, questionID int64, item string) model.AnswerKey {
		return model.ListeningKey(groupID, questionID, item)
	})
}

// ScoreReading grades the reading skill of a phase over its passages.
func ScoreReading(content *model.ReadingContent, answers map[string]string) *model.ObjectiveScore {
	var groups []scoredGroup
	for _, p := range content.Passages {
		groups = append(groups, scoredGroup{id: p.ID, questions: p.Questions})
	}
	return scoreObjective(groups, answers, func(groupID, questionID int64, item string) model.AnswerKey {
		return model.ReadingKey(groupID, questionID, item)
	})
}

type scoredGroup struct {
	id        int64
	questions []model.Question
}

type keyFunc func(groupID, questionID int64, item string) model.AnswerKey

func scoreObjective(groups []scoredGroup, answers map[string]string, key keyFunc) *model.ObjectiveScore {
	var (
		raw      int
		total    int
		answered bool
		detailed []model.QuestionResult
	)

	for _, g := range groups {
		for _, q := range g.questions {
			items := questionItems(q)
			for _, it := range items {
				total++
				user := key(g.id, q.ID, it.Item).Lookup(answers)
				if strings.TrimSpace(user) != "" {
					answered = true
				}
				correct := Compare(user, it.Expected)
				if correct {
					raw++
				}
				detailed = append(detailed, model.QuestionResult{
					QuestionID: q.ID,
					GroupID:    g.id,
					Item:       it.Item,
					UserAnswer: user,
					Expected:   it.Expected,
					Correct:    correct,
				})
			}
		}
	}

	// A perfect raw score is only trusted when every item actually has a
	// non-empty submission. The matcher rejects blank answers outright, so
	// this should be unreachable; recompute from scratch if it ever trips.
	if total > 0 && raw == total {
		raw = verifyPerfectScore(detailed, raw)
	}

	return &model.ObjectiveScore{
		RawScore:       raw,
		TotalQuestions: total,
		Band:           ConvertBand(raw, total, answered),
		Detailed:       detailed,
	}
}

// questionItems expands a question into its scorable items: matching
// questions contribute one item per pair, everything else a single item.
func questionItems(q model.Question) []matchingPair {
	if q.Type == model.QuestionMatching || q.Type == model.QuestionMatchingHeading {
		if pairs := parseMatchingPairs(q.CorrectAnswer); pairs != nil {
			return pairs
		}
	}
	return []matchingPair{{Item: "", Expected: q.CorrectAnswer}}
}

func verifyPerfectScore(detailed []model.QuestionResult, raw int) int {
	recomputed := 0
	for i := range detailed {
		if strings.TrimSpace(detailed[i].UserAnswer) == "" {
			detailed[i].Correct = false
			continue
		}
		if detailed[i].Correct {
			recomputed++
		}
	}
	if recomputed != raw {
		slog.Warn("perfect raw score with missing answers, recomputed",
			"reported", raw, "recomputed", recomputed)
	}
	return recomputed
}
