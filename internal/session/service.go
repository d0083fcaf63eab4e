// Package session drives the exam lifecycle: a forward-only status machine
// where content, answers, scores and final results are each set exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hdnguyen/bandexam/internal/model"
	"github.com/hdnguyen/bandexam/internal/scoring"
	"github.com/hdnguyen/bandexam/internal/store"
)

// ErrInvalidState is returned when an operation is attempted against a
// session whose status does not allow it.
var ErrInvalidState = errors.New("operation not allowed in current session state")

// ErrInvalidInput is returned for requests that fail validation before any
// state is touched.
var ErrInvalidInput = errors.New("invalid input")

var nowFunc = time.Now

func stateErr(op string, have model.SessionStatus) error {
	return fmt.Errorf("%s: session status is %s: %w", op, have, ErrInvalidState)
}

// Generator produces exam content for one phase. Calls may take many
// seconds; the service never holds a session lock across them.
type Generator interface {
	GenerateContent(ctx context.Context, level model.Level, phase model.Phase) (*model.PhaseContent, error)
}

// Service coordinates the session store, the content generator and the
// scoring engine.
type Service struct {
	store   *store.SessionStore
	gen     Generator
	grader  scoring.Grader
	archive *store.Archive
}

// New creates a session service. archive may be nil; archiving is then
// skipped.
func New(st *store.SessionStore, gen Generator, grader scoring.Grader, archive *store.Archive) *Service {
	return &Service{store: st, gen: gen, grader: grader, archive: archive}
}

// Create starts a new session at the given proficiency level.
func (s *Service) Create(level model.Level) (*model.Session, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("unknown level %q: %w", level, ErrInvalidInput)
	}
	sess := s.store.Create(level)
	slog.Info("session created", "session", sess.ID, "level", level)
	return sess, nil
}

// Get returns a session snapshot.
func (s *Service) Get(id int64) (*model.Session, error) {
	return s.store.Get(id)
}

// Status returns the lightweight status projection for a session.
func (s *Service) Status(id int64) (model.StatusProjection, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return model.StatusProjection{}, err
	}
	return sess.Projection(), nil
}

// List returns snapshots of all live sessions ordered by id.
func (s *Service) List() []*model.Session {
	return s.store.List()
}

// SelectPhase fixes which skill group the first phase covers. Selecting the
// same phase again is a no-op; anything else after selection is rejected.
func (s *Service) SelectPhase(id int64, phase model.Phase) (*model.Session, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("unknown phase type %q: %w", phase, ErrInvalidInput)
	}
	return s.store.Apply(id, func(sess *model.Session) error {
		if sess.SelectedPhase == phase {
			return nil
		}
		if sess.Status != model.StatusInitialized {
			return stateErr("select phase", sess.Status)
		}
		sess.SelectedPhase = phase
		sess.Status = model.StatusPhase1Selected
		return nil
	})
}

// GeneratePhase1 generates the first phase's content. Idempotent: once
// content exists the stored session is returned without a new generation
// call. The generator runs outside any session lock.
func (s *Service) GeneratePhase1(ctx context.Context, id int64) (*model.Session, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.Phase1Content != nil {
		return snap, nil
	}
	if snap.Status != model.StatusPhase1Selected {
		return nil, stateErr("generate phase 1", snap.Status)
	}

	content, err := s.gen.GenerateContent(ctx, snap.Level, snap.SelectedPhase)
	if err != nil {
		return nil, err
	}

	return s.store.Apply(id, func(sess *model.Session) error {
		if sess.Phase1Content != nil {
			return nil // concurrent generation won; keep the first result
		}
		if sess.Status != model.StatusPhase1Selected {
			return stateErr("generate phase 1", sess.Status)
		}
		sess.Phase1Content = content
		sess.Status = model.StatusPhase1Generated
		return nil
	})
}

// StartPhase1 marks the first phase as in progress and stamps its start
// time. Calling it again while in progress is a no-op.
func (s *Service) StartPhase1(id int64) (*model.Session, error) {
	return s.store.Apply(id, func(sess *model.Session) error {
		if sess.Status == model.StatusPhase1InProgress {
			return nil
		}
		if sess.Status != model.StatusPhase1Generated {
			return stateErr("start phase 1", sess.Status)
		}
		now := nowFunc()
		sess.Phase1StartedAt = &now
		sess.Status = model.StatusPhase1InProgress
		return nil
	})
}

// SubmitPhase1 grades and records the first phase's answers. Exactly one
// submission succeeds; later attempts get ErrInvalidState. Grading runs
// against a snapshot outside the session lock, so a concurrent submission
// race is resolved at commit time.
func (s *Service) SubmitPhase1(ctx context.Context, id int64, answers map[string]string) (*model.Session, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.Status != model.StatusPhase1InProgress || snap.Phase1Scores != nil {
		return nil, stateErr("submit phase 1", snap.Status)
	}
	if answers == nil {
		answers = map[string]string{}
	}

	scores := scoring.ScorePhase(ctx, s.grader, snap.SelectedPhase, snap.Phase1Content, answers)

	sess, err := s.store.Apply(id, func(sess *model.Session) error {
		if sess.Status != model.StatusPhase1InProgress || sess.Phase1Scores != nil {
			return stateErr("submit phase 1", sess.Status)
		}
		now := nowFunc()
		sess.Phase1Answers = answers
		sess.Phase1Scores = scores
		sess.Phase1CompletedAt = &now
		sess.Status = model.StatusPhase1Completed
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("phase 1 submitted", "session", id, "answers", len(answers))
	return sess, nil
}

// GeneratePhase2 generates content for the complementary skill group.
// Idempotent once content exists.
func (s *Service) GeneratePhase2(ctx context.Context, id int64) (*model.Session, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.Phase2Content != nil {
		return snap, nil
	}
	if snap.Status != model.StatusPhase1Completed {
		return nil, stateErr("generate phase 2", snap.Status)
	}

	content, err := s.gen.GenerateContent(ctx, snap.Level, snap.Phase2Type())
	if err != nil {
		return nil, err
	}

	return s.store.Apply(id, func(sess *model.Session) error {
		if sess.Phase2Content != nil {
			return nil
		}
		if sess.Status != model.StatusPhase1Completed {
			return stateErr("generate phase 2", sess.Status)
		}
		sess.Phase2Content = content
		sess.Status = model.StatusPhase2Generated
		return nil
	})
}

// StartPhase2 marks the second phase as in progress.
func (s *Service) StartPhase2(id int64) (*model.Session, error) {
	return s.store.Apply(id, func(sess *model.Session) error {
		if sess.Status == model.StatusPhase2InProgress {
			return nil
		}
		if sess.Status != model.StatusPhase2Generated {
			return stateErr("start phase 2", sess.Status)
		}
		now := nowFunc()
		sess.Phase2StartedAt = &now
		sess.Status = model.StatusPhase2InProgress
		return nil
	})
}

// SubmitPhase2 grades and records the second phase's answers.
func (s *Service) SubmitPhase2(ctx context.Context, id int64, answers map[string]string) (*model.Session, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.Status != model.StatusPhase2InProgress || snap.Phase2Scores != nil {
		return nil, stateErr("submit phase 2", snap.Status)
	}
	if answers == nil {
		answers = map[string]string{}
	}

	scores := scoring.ScorePhase(ctx, s.grader, snap.Phase2Type(), snap.Phase2Content, answers)

	sess, err := s.store.Apply(id, func(sess *model.Session) error {
		if sess.Status != model.StatusPhase2InProgress || sess.Phase2Scores != nil {
			return stateErr("submit phase 2", sess.Status)
		}
		now := nowFunc()
		sess.Phase2Answers = answers
		sess.Phase2Scores = scores
		sess.Phase2CompletedAt = &now
		sess.Status = model.StatusPhase2Completed
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("phase 2 submitted", "session", id, "answers", len(answers))
	return sess, nil
}

// Aggregate combines the two phase results into the final four-skill bands,
// attaches a best-effort narrative analysis, and completes the session.
// Idempotent: once final results exist they are returned unchanged.
func (s *Service) Aggregate(ctx context.Context, id int64) (*model.Session, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.FinalResults != nil {
		return snap, nil
	}
	if snap.Status != model.StatusPhase2Completed {
		return nil, stateErr("aggregate", snap.Status)
	}

	final := scoring.Aggregate(snap.Phase1Scores, snap.Phase2Scores, snap.SelectedPhase, snap.Phase2Type())
	final.Analysis = scoring.GenerateAnalysis(ctx, s.grader, analysisInput(snap, final))

	sess, err := s.store.Apply(id, func(sess *model.Session) error {
		if sess.FinalResults != nil {
			return nil
		}
		if sess.Status != model.StatusPhase2Completed {
			return stateErr("aggregate", sess.Status)
		}
		sess.FinalResults = final
		sess.Status = model.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.archiveSession(sess)
	slog.Info("session completed", "session", id, "overall", sess.FinalResults.Overall)
	return sess, nil
}

// GenerateAnalysis retries the narrative analysis after completion, for
// sessions whose inline attempt degraded to empty. Idempotent once a
// non-empty analysis is attached.
func (s *Service) GenerateAnalysis(ctx context.Context, id int64) (*model.Session, error) {
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.Status != model.StatusCompleted || snap.FinalResults == nil {
		return nil, stateErr("generate analysis", snap.Status)
	}
	if !snap.FinalResults.Analysis.Empty() {
		return snap, nil
	}

	analysis := scoring.GenerateAnalysis(ctx, s.grader, analysisInput(snap, snap.FinalResults))

	sess, err := s.store.Apply(id, func(sess *model.Session) error {
		if sess.FinalResults == nil {
			return stateErr("generate analysis", sess.Status)
		}
		if !sess.FinalResults.Analysis.Empty() {
			return nil
		}
		// Final results are shared between snapshots, so attach the
		// analysis to a fresh copy instead of mutating in place.
		updated := *sess.FinalResults
		updated.Analysis = analysis
		sess.FinalResults = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.archiveSession(sess)
	return sess, nil
}

func analysisInput(sess *model.Session, final *model.FinalResults) scoring.AnalysisInput {
	return scoring.AnalysisInput{
		Phase1Scores:  sess.Phase1Scores,
		Phase2Scores:  sess.Phase2Scores,
		Phase1Type:    sess.SelectedPhase,
		Phase2Type:    sess.Phase2Type(),
		Phase1Answers: sess.Phase1Answers,
		Phase2Answers: sess.Phase2Answers,
		Final:         final,
	}
}

// archiveSession persists a completed session. Archive failures are logged,
// never surfaced; the in-memory record remains authoritative.
func (s *Service) archiveSession(sess *model.Session) {
	if s.archive == nil || sess.FinalResults == nil {
		return
	}
	if err := s.archive.Save(sess); err != nil {
		slog.Warn("archive save failed", "session", sess.ID, "error", err)
	}
}
