package scoring

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hdnguyen/bandexam/internal/model"
)

func TestAggregate(t *testing.T) {
	phase1 := &model.PhaseScores{
		Listening: &model.ObjectiveScore{RawScore: 9, TotalQuestions: 20, Band: 6.0},
		Speaking:  &model.SubjectiveScore{OverallBand: 6.5},
	}
	phase2 := &model.PhaseScores{
		Reading: &model.ObjectiveScore{RawScore: 6, TotalQuestions: 10, Band: 7.0},
		Writing: &model.SubjectiveScore{OverallBand: 5.5},
	}

	final := Aggregate(phase1, phase2, model.PhaseListeningSpeaking, model.PhaseReadingWriting)

	if final.Listening != 6.0 || final.Speaking != 6.5 || final.Reading != 7.0 || final.Writing != 5.5 {
		t.Errorf("skill bands = L%v R%v W%v S%v", final.Listening, final.Reading, final.Writing, final.Speaking)
	}
	// (6.0 + 7.0 + 5.5 + 6.5) / 4 = 6.25, rounded half away from zero
	if final.Overall != 6.3 {
		t.Errorf("Overall = %v, want 6.3", final.Overall)
	}
}

func TestAggregateReversedPhaseOrder(t *testing.T) {
	phase1 := &model.PhaseScores{
		Reading: &model.ObjectiveScore{Band: 4.5},
		Writing: &model.SubjectiveScore{OverallBand: 5.0},
	}
	phase2 := &model.PhaseScores{
		Listening: &model.ObjectiveScore{Band: 5.5},
		Speaking:  &model.SubjectiveScore{OverallBand: 5.0},
	}

	final := Aggregate(phase1, phase2, model.PhaseReadingWriting, model.PhaseListeningSpeaking)

	if final.Reading != 4.5 || final.Writing != 5.0 || final.Listening != 5.5 || final.Speaking != 5.0 {
		t.Errorf("skill bands = L%v R%v W%v S%v", final.Listening, final.Reading, final.Writing, final.Speaking)
	}
	if final.Overall != 5.0 {
		t.Errorf("Overall = %v, want 5.0", final.Overall)
	}
}

func TestAggregateAllZero(t *testing.T) {
	phase1 := &model.PhaseScores{
		Listening: &model.ObjectiveScore{Band: 0.0},
		Speaking:  &model.SubjectiveScore{OverallBand: 0.0},
	}
	phase2 := &model.PhaseScores{
		Reading: &model.ObjectiveScore{Band: 0.0},
		Writing: &model.SubjectiveScore{OverallBand: 0.0},
	}

	final := Aggregate(phase1, phase2, model.PhaseListeningSpeaking, model.PhaseReadingWriting)
	if final.Overall != 0.0 {
		t.Errorf("Overall = %v, want 0.0 for an unanswered exam", final.Overall)
	}
}

func analysisFixture() AnalysisInput {
	return AnalysisInput{
		Phase1Scores: &model.PhaseScores{
			Listening: &model.ObjectiveScore{RawScore: 12, TotalQuestions: 20, Band: 7.5},
			Speaking:  &model.SubjectiveScore{Criteria: map[string]float64{"pronunciation": 6.0}, OverallBand: 6.0},
		},
		Phase2Scores: &model.PhaseScores{
			Reading: &model.ObjectiveScore{RawScore: 5, TotalQuestions: 10, Band: 6.5},
			Writing: &model.SubjectiveScore{Criteria: map[string]float64{"task_response": 6.0}, OverallBand: 6.0},
		},
		Phase1Type:    model.PhaseListeningSpeaking,
		Phase2Type:    model.PhaseReadingWriting,
		Phase1Answers: map[string]string{"speaking_part2": "My answer about travelling."},
		Phase2Answers: map[string]string{"writing_task2": "An essay about city life."},
		Final:         &model.FinalResults{Listening: 7.5, Reading: 6.5, Writing: 6.0, Speaking: 6.0, Overall: 6.5},
	}
}

func TestGenerateAnalysis(t *testing.T) {
	grader := &stubGrader{raw: json.RawMessage(
		`{"rubric_analysis":{"listening":{"strengths":["detail"]}},"supplementary_analysis":{"reflex_level":"moderate"}}`,
	)}

	analysis := GenerateAnalysis(t.Context(), grader, analysisFixture())

	if grader.calls != 2 {
		t.Fatalf("grader called %d times, want 2 (rubric and supplementary)", grader.calls)
	}
	if analysis.Empty() {
		t.Fatal("analysis is empty, want both halves populated")
	}
	if len(analysis.Rubric) == 0 {
		t.Error("Rubric half is empty")
	}
	if len(analysis.Supplementary) == 0 {
		t.Error("Supplementary half is empty")
	}
}

func TestGenerateAnalysisDegradesToEmpty(t *testing.T) {
	grader := &stubGrader{err: errors.New("rate limited")}

	analysis := GenerateAnalysis(t.Context(), grader, analysisFixture())

	if analysis == nil {
		t.Fatal("analysis is nil, want an empty record")
	}
	if !analysis.Empty() {
		t.Error("analysis not empty after both calls failed")
	}
}

func TestGenerateAnalysisPartialFailure(t *testing.T) {
	// The grader answers with rubric content only; the supplementary half
	// stays empty but the rubric half survives.
	grader := &stubGrader{raw: json.RawMessage(`{"rubric_analysis":{"listening":{}}}`)}

	analysis := GenerateAnalysis(t.Context(), grader, analysisFixture())

	if len(analysis.Rubric) == 0 {
		t.Error("Rubric half missing")
	}
	if len(analysis.Supplementary) != 0 {
		t.Error("Supplementary half present, want empty")
	}
	if analysis.Empty() {
		t.Error("analysis reported empty with a populated rubric half")
	}
}

func TestCriterionAbbrev(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fluency_coherence", "FC"},
		{"task_response", "TR"},
		{"pronunciation", "P"},
	}
	for _, tt := range tests {
		if got := criterionAbbrev(tt.in); got != tt.want {
			t.Errorf("criterionAbbrev(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
