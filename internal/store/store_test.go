package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/hdnguyen/bandexam/internal/model"
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s := NewSessionStore()
	first := s.Create(model.LevelIntermediate)
	second := s.Create(model.LevelAdvanced)

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.Status != model.StatusInitialized {
		t.Errorf("Status = %s, want %s", first.Status, model.StatusInitialized)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestGetNotFound(t *testing.T) {
	s := NewSessionStore()
	if _, err := s.Get(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(42) error = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewSessionStore()
	sess := s.Create(model.LevelBeginner)

	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Status = model.StatusCompleted
	got.Phase1Answers = map[string]string{"x": "y"}

	again, _ := s.Get(sess.ID)
	if again.Status != model.StatusInitialized {
		t.Error("mutating a returned session leaked into the store")
	}
	if again.Phase1Answers != nil {
		t.Error("mutating answers on a returned session leaked into the store")
	}
}

func TestApplyCommitsOnSuccess(t *testing.T) {
	s := NewSessionStore()
	sess := s.Create(model.LevelIntermediate)

	updated, err := s.Apply(sess.ID, func(w *model.Session) error {
		w.SelectedPhase = model.PhaseListeningSpeaking
		w.Status = model.StatusPhase1Selected
		return nil
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if updated.Status != model.StatusPhase1Selected {
		t.Errorf("Status = %s, want %s", updated.Status, model.StatusPhase1Selected)
	}
	if updated.Version != 1 {
		t.Errorf("Version = %d, want 1", updated.Version)
	}
	if updated.UpdatedAt == nil {
		t.Error("UpdatedAt not stamped")
	}
}

func TestApplyRollsBackOnError(t *testing.T) {
	s := NewSessionStore()
	sess := s.Create(model.LevelIntermediate)
	boom := errors.New("boom")

	_, err := s.Apply(sess.ID, func(w *model.Session) error {
		w.Status = model.StatusCompleted
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Apply error = %v, want boom", err)
	}

	got, _ := s.Get(sess.ID)
	if got.Status != model.StatusInitialized {
		t.Errorf("Status = %s after failed Apply, want unchanged", got.Status)
	}
	if got.Version != 0 {
		t.Errorf("Version = %d after failed Apply, want 0", got.Version)
	}
}

func TestApplyNotFound(t *testing.T) {
	s := NewSessionStore()
	_, err := s.Apply(99, func(*model.Session) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Apply(99) error = %v, want ErrNotFound", err)
	}
}

func TestApplySerializesConcurrentWriters(t *testing.T) {
	s := NewSessionStore()
	sess := s.Create(model.LevelIntermediate)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Apply(sess.ID, func(w *model.Session) error {
				if w.Phase1Answers == nil {
					w.Phase1Answers = make(map[string]string)
				}
				w.Phase1Answers["counter"] = w.Phase1Answers["counter"] + "x"
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get(sess.ID)
	if got.Version != writers {
		t.Errorf("Version = %d, want %d", got.Version, writers)
	}
	if len(got.Phase1Answers["counter"]) != writers {
		t.Errorf("counter length = %d, want %d (lost update)", len(got.Phase1Answers["counter"]), writers)
	}
}

func TestListOrdered(t *testing.T) {
	s := NewSessionStore()
	for i := 0; i < 5; i++ {
		s.Create(model.LevelElementary)
	}
	s.Delete(3)

	sessions := s.List()
	if len(sessions) != 4 {
		t.Fatalf("len = %d, want 4", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i-1].ID >= sessions[i].ID {
			t.Errorf("sessions not ordered by id: %d before %d", sessions[i-1].ID, sessions[i].ID)
		}
	}
}

func TestDelete(t *testing.T) {
	s := NewSessionStore()
	sess := s.Create(model.LevelBeginner)

	if !s.Delete(sess.ID) {
		t.Error("Delete returned false for existing session")
	}
	if s.Delete(sess.ID) {
		t.Error("Delete returned true for removed session")
	}
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}
