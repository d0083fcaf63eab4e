package scoring

import (
	"testing"

	"github.com/hdnguyen/bandexam/internal/model"
)

func newListeningContent() *model.ListeningContent {
	return &model.ListeningContent{
		Sections: []model.ListeningSection{
			{
				ID: 1,
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionFillBlank, CorrectAnswer: "library"},
					{ID: 2, Type: model.QuestionMultipleChoice, CorrectAnswer: "B"},
				},
			},
			{
				ID: 2,
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionMatching, CorrectAnswer: "A:i, B:ii, C:iii"},
				},
			},
		},
	}
}

func TestScoreListening(t *testing.T) {
	content := newListeningContent()
	answers := map[string]string{
		"listening_s1_q1":   "Library",
		"listening_s1_q2":   "b",
		"listening_s2_q1_A": "i",
		"listening_s2_q1_B": "iii",
		"listening_s2_q1_C": "iii",
	}

	score := ScoreListening(content, answers)

	if score.TotalQuestions != 5 {
		t.Fatalf("TotalQuestions = %d, want 5 (matching expands to sub-items)", score.TotalQuestions)
	}
	if score.RawScore != 4 {
		t.Errorf("RawScore = %d, want 4", score.RawScore)
	}
	if len(score.Detailed) != 5 {
		t.Errorf("len(Detailed) = %d, want 5", len(score.Detailed))
	}
	for _, d := range score.Detailed {
		if d.QuestionID == 1 && d.GroupID == 2 && d.Item == "B" && d.Correct {
			t.Errorf("sub-item B marked correct, want incorrect")
		}
	}
}

func TestScoreListeningNoAnswers(t *testing.T) {
	score := ScoreListening(newListeningContent(), map[string]string{})
	if score.RawScore != 0 {
		t.Errorf("RawScore = %d, want 0", score.RawScore)
	}
	if score.Band != 0.0 {
		t.Errorf("Band = %v, want 0.0 when nothing was answered", score.Band)
	}
}

func TestScoreReading(t *testing.T) {
	content := &model.ReadingContent{
		Passages: []model.ReadingPassage{
			{
				ID: 1,
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionTrueFalseNG, CorrectAnswer: "True"},
					{ID: 2, Type: model.QuestionShortAnswer, CorrectAnswer: "solar panels"},
				},
			},
		},
	}
	answers := map[string]string{
		"reading_p1_q1": "true",
		"reading_p1_q2": "wind turbines",
	}

	score := ScoreReading(content, answers)

	if score.RawScore != 1 {
		t.Errorf("RawScore = %d, want 1", score.RawScore)
	}
	if score.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", score.TotalQuestions)
	}
	if score.Band == 0.0 {
		t.Errorf("Band = 0.0, want non-zero for one correct answer")
	}
}

func TestParseMatchingPairs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
	}{
		{"three pairs", "A:i, B:ii, C:iii", 3},
		{"two pairs no spaces", "A:1,B:2", 2},
		{"single pair rejected", "A:i", 0},
		{"plain answer rejected", "the red house", 0},
		{"empty side rejected", "A:, B:ii", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := parseMatchingPairs(tt.in)
			if len(pairs) != tt.wantLen {
				t.Errorf("parseMatchingPairs(%q) returned %d pairs, want %d", tt.in, len(pairs), tt.wantLen)
			}
		})
	}
}

func TestMatchingFallsBackToPlainText(t *testing.T) {
	content := &model.ListeningContent{
		Sections: []model.ListeningSection{
			{
				ID: 1,
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionMatching, CorrectAnswer: "chronological order"},
				},
			},
		},
	}
	answers := map[string]string{"listening_s1_q1": "chronological order"}

	score := ScoreListening(content, answers)
	if score.TotalQuestions != 1 || score.RawScore != 1 {
		t.Errorf("got %d/%d, want 1/1 for unparsable matching answer", score.RawScore, score.TotalQuestions)
	}
}

func TestPerfectScoreRequiresAllAnswered(t *testing.T) {
	// A perfect raw count must survive a recount that discounts blank
	// submissions.
	content := &model.ListeningContent{
		Sections: []model.ListeningSection{
			{
				ID: 1,
				Questions: []model.Question{
					{ID: 1, Type: model.QuestionFillBlank, CorrectAnswer: "keys"},
					{ID: 2, Type: model.QuestionFillBlank, CorrectAnswer: "nine"},
				},
			},
		},
	}
	answers := map[string]string{
		"listening_s1_q1": "keys",
		"listening_s1_q2": "nine",
	}

	score := ScoreListening(content, answers)
	if score.RawScore != 2 {
		t.Errorf("RawScore = %d, want 2", score.RawScore)
	}
	if score.Band != 9.0 {
		t.Errorf("Band = %v, want 9.0 for a perfect run", score.Band)
	}
}
