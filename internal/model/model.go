package model

import "time"

// Level represents a candidate's self-assessed proficiency level.
type Level string

const (
	LevelBeginner          Level = "beginner"
	LevelElementary        Level = "elementary"
	LevelIntermediate      Level = "intermediate"
	LevelUpperIntermediate Level = "upper_intermediate"
	LevelAdvanced          Level = "advanced"
)

// Valid reports whether l is a known proficiency level.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelElementary, LevelIntermediate, LevelUpperIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// TargetBand returns the band range content generation should aim for.
func (l Level) TargetBand() string {
	switch l {
	case LevelBeginner:
		return "3.0-4.0"
	case LevelElementary:
		return "4.0-4.5"
	case LevelUpperIntermediate:
		return "6.0-6.5"
	case LevelAdvanced:
		return "7.0-8.0"
	default:
		return "5.0-5.5"
	}
}

// Phase identifies one of the two skill groups an exam phase covers.
type Phase string

const (
	PhaseListeningSpeaking Phase = "listening_speaking"
	PhaseReadingWriting    Phase = "reading_writing"
)

// Valid reports whether p is a known phase type.
func (p Phase) Valid() bool {
	return p == PhaseListeningSpeaking || p == PhaseReadingWriting
}

// Complement returns the skill group not covered by p. The two phases of an
// exam always cover complementary groups.
func (p Phase) Complement() Phase {
	if p == PhaseListeningSpeaking {
		return PhaseReadingWriting
	}
	return PhaseListeningSpeaking
}

// SessionStatus represents the state of an exam session. Statuses only ever
// advance forward through the declared order.
type SessionStatus string

const (
	StatusInitialized      SessionStatus = "initialized"
	StatusPhase1Selected   SessionStatus = "phase1_selected"
	StatusPhase1Generated  SessionStatus = "phase1_generated"
	StatusPhase1InProgress SessionStatus = "phase1_in_progress"
	StatusPhase1Completed  SessionStatus = "phase1_completed"
	StatusPhase2Generated  SessionStatus = "phase2_generated"
	StatusPhase2InProgress SessionStatus = "phase2_in_progress"
	StatusPhase2Completed  SessionStatus = "phase2_completed"
	StatusCompleted        SessionStatus = "completed"
)

// statusOrder fixes the legal forward progression of session statuses.
var statusOrder = map[SessionStatus]int{
	StatusInitialized:      0,
	StatusPhase1Selected:   1,
	StatusPhase1Generated:  2,
	StatusPhase1InProgress: 3,
	StatusPhase1Completed:  4,
	StatusPhase2Generated:  5,
	StatusPhase2InProgress: 6,
	StatusPhase2Completed:  7,
	StatusCompleted:        8,
}

// Before reports whether s precedes other in the session lifecycle.
func (s SessionStatus) Before(other SessionStatus) bool {
	return statusOrder[s] < statusOrder[other]
}

// Session is the unit of exam-taking. Content, answers, scores and final
// results each transition from unset to set exactly once; nothing overwrites
// a value that is already set.
type Session struct {
	ID            int64         `json:"id"`
	Level         Level         `json:"level"`
	SelectedPhase Phase         `json:"selected_phase,omitempty"`
	Status        SessionStatus `json:"status"`

	Phase1Content *PhaseContent     `json:"phase1_content,omitempty"`
	Phase1Answers map[string]string `json:"phase1_answers,omitempty"`
	Phase1Scores  *PhaseScores      `json:"phase1_scores,omitempty"`

	Phase2Content *PhaseContent     `json:"phase2_content,omitempty"`
	Phase2Answers map[string]string `json:"phase2_answers,omitempty"`
	Phase2Scores  *PhaseScores      `json:"phase2_scores,omitempty"`

	FinalResults *FinalResults `json:"final_results,omitempty"`

	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	Phase1StartedAt   *time.Time `json:"phase1_started_at,omitempty"`
	Phase1CompletedAt *time.Time `json:"phase1_completed_at,omitempty"`
	Phase2StartedAt   *time.Time `json:"phase2_started_at,omitempty"`
	Phase2CompletedAt *time.Time `json:"phase2_completed_at,omitempty"`

	// Version counts committed updates. Apply-based read-modify-write bumps
	// it on every commit so concurrent writers can detect lost updates.
	Version int64 `json:"version"`
}

// Phase2Type returns the skill group covered by the second phase, or empty
// if no phase has been selected yet.
func (s *Session) Phase2Type() Phase {
	if s.SelectedPhase == "" {
		return ""
	}
	return s.SelectedPhase.Complement()
}

// Clone returns a copy of the session safe to hand outside the store.
// Content, scores and results are immutable once set, so sharing those
// pointers is fine; answer maps are copied because callers may build on them.
func (s *Session) Clone() *Session {
	c := *s
	c.Phase1Answers = cloneAnswers(s.Phase1Answers)
	c.Phase2Answers = cloneAnswers(s.Phase2Answers)
	return &c
}

func cloneAnswers(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// StatusProjection is the lightweight view returned by the status endpoint.
type StatusProjection struct {
	ID              int64         `json:"id"`
	Status          SessionStatus `json:"status"`
	Level           Level         `json:"level"`
	SelectedPhase   Phase         `json:"selected_phase,omitempty"`
	Phase1Available bool          `json:"phase1_available"`
	Phase2Available bool          `json:"phase2_available"`
	Phase1Completed bool          `json:"phase1_completed"`
	Phase2Completed bool          `json:"phase2_completed"`
}

// Projection builds the status projection for a session.
func (s *Session) Projection() StatusProjection {
	return StatusProjection{
		ID:              s.ID,
		Status:          s.Status,
		Level:           s.Level,
		SelectedPhase:   s.SelectedPhase,
		Phase1Available: s.Phase1Content != nil,
		Phase2Available: s.Phase2Content != nil,
		Phase1Completed: s.Phase1Scores != nil,
		Phase2Completed: s.Phase2Scores != nil,
	}
}
