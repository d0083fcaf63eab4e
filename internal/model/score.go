package model

import "encoding/json"

// QuestionResult records the outcome of a single objective item.
type QuestionResult struct {
	QuestionID int64  `json:"question_id"`
	GroupID    int64  `json:"group_id"`
	Item       string `json:"item,omitempty"`
	UserAnswer string `json:"user_answer"`
	Expected   string `json:"correct_answer"`
	Correct    bool   `json:"is_correct"`
}

// ObjectiveScore is the graded result of a listening or reading skill.
type ObjectiveScore struct {
	RawScore       int              `json:"raw_score"`
	TotalQuestions int              `json:"total_questions"`
	Band           float64          `json:"band"`
	Detailed       []QuestionResult `json:"detailed_results"`
}

// SubjectiveScore is the graded result of a speaking or writing skill,
// produced by the freeform grading collaborator (or its fallback policy).
type SubjectiveScore struct {
	Criteria    map[string]float64 `json:"criteria"`
	OverallBand float64            `json:"overall_band"`
	Feedback    string             `json:"feedback"`
}

// PhaseScores holds the per-skill scores produced by one phase submission.
// Exactly one objective/subjective pair is populated per phase.
type PhaseScores struct {
	Listening *ObjectiveScore  `json:"listening,omitempty"`
	Speaking  *SubjectiveScore `json:"speaking,omitempty"`
	Reading   *ObjectiveScore  `json:"reading,omitempty"`
	Writing   *SubjectiveScore `json:"writing,omitempty"`
}

// Analysis holds the optional narrative analysis attached to final results.
// Both halves are opaque collaborator output passed through to the client;
// either may independently be empty when its generation call failed.
type Analysis struct {
	Rubric        json.RawMessage `json:"rubric_analysis,omitempty"`
	Supplementary json.RawMessage `json:"supplementary_analysis,omitempty"`
}

// Empty reports whether both analysis halves are missing.
func (a *Analysis) Empty() bool {
	return a == nil || (len(a.Rubric) == 0 && len(a.Supplementary) == 0)
}

// FinalResults is the aggregated four-skill outcome of a completed exam.
type FinalResults struct {
	Listening float64   `json:"listening"`
	Reading   float64   `json:"reading"`
	Writing   float64   `json:"writing"`
	Speaking  float64   `json:"speaking"`
	Overall   float64   `json:"overall"`
	Analysis  *Analysis `json:"detailed_analysis,omitempty"`
}
