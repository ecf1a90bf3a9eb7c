package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// memStore is an in-memory CheckpointStore for scheduler tests.
type memStore struct {
	mu    sync.Mutex
	cps   map[string]Checkpoint
	saves int
}

func newMemStore() *memStore {
	return &memStore{cps: make(map[string]Checkpoint)}
}

func (m *memStore) Save(_ context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cps[cp.SessionID] = cp
	m.saves++
	return nil
}

func (m *memStore) Load(_ context.Context, sessionID string) (Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.cps[sessionID]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

func (m *memStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cps, sessionID)
	return nil
}

const (
	stepA StepID = "a"
	stepB StepID = "b"
)

func TestSchedulerRunsToTermination(t *testing.T) {
	g := NewGraph(stepA)
	g.Add(stepA, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		st.Append(AssistantMessage("a ran"))
		return Continue(stepB), nil
	})
	g.Add(stepB, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		return Terminate(), nil
	})

	store := newMemStore()
	s, err := NewScheduler(g, store)
	if err != nil {
		t.Fatal(err)
	}

	out, err := s.Start(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindTerminate {
		t.Fatalf("got %s, want terminate", out.Kind)
	}
	if store.saves != 2 {
		t.Errorf("expected a checkpoint per step, got %d", store.saves)
	}

	cp, err := store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !cp.Terminal || cp.Step != StepEnd {
		t.Errorf("final checkpoint = %+v, want terminal at end", cp)
	}
}

func TestSchedulerSuspendAndResume(t *testing.T) {
	askCount := 0
	g := NewGraph(stepA)
	g.Add(stepA, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		if st.Last().Role != RoleUser || st.Last().Content != "the answer" {
			askCount++
			return Suspend("need the answer"), nil
		}
		return Terminate(), nil
	})

	store := newMemStore()
	s, _ := NewScheduler(g, store)
	ctx := context.Background()

	out, err := s.Start(ctx, "s1", "start")
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindSuspend || out.Prompt != "need the answer" {
		t.Fatalf("got %+v, want suspension with prompt", out)
	}

	cp, _ := store.Load(ctx, "s1")
	if !cp.Suspended || cp.Step != stepA {
		t.Fatalf("suspended checkpoint = %+v, want step a suspended", cp)
	}

	// Wrong answer suspends again; the step re-runs on every resume.
	out, err = s.Resume(ctx, "s1", "not it")
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindSuspend {
		t.Fatalf("wrong reply should re-suspend, got %s", out.Kind)
	}

	out, err = s.Resume(ctx, "s1", "the answer")
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindTerminate {
		t.Fatalf("got %s, want termination", out.Kind)
	}
	if askCount != 2 {
		t.Errorf("suspended step ran %d times before success, want 2", askCount)
	}

	// The resumed state must carry every reply in order.
	var userContents []string
	for _, m := range out.State.Messages {
		if m.Role == RoleUser {
			userContents = append(userContents, m.Content)
		}
	}
	want := []string{"start", "not it", "the answer"}
	if len(userContents) != len(want) {
		t.Fatalf("user messages = %v, want %v", userContents, want)
	}
	for i := range want {
		if userContents[i] != want[i] {
			t.Errorf("user message %d = %q, want %q", i, userContents[i], want[i])
		}
	}
}

func TestResumeRejectsTerminatedSession(t *testing.T) {
	g := NewGraph(stepA)
	g.Add(stepA, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		return Terminate(), nil
	})

	store := newMemStore()
	s, _ := NewScheduler(g, store)
	ctx := context.Background()

	if _, err := s.Start(ctx, "s1", "go"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resume(ctx, "s1", "more"); err == nil {
		t.Fatal("resume of a terminated session must fail")
	}
}

func TestResumeRejectsUnknownSession(t *testing.T) {
	g := NewGraph(stepA)
	g.Add(stepA, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		return Terminate(), nil
	})
	s, _ := NewScheduler(g, newMemStore())

	if _, err := s.Resume(context.Background(), "missing", "hi"); err == nil {
		t.Fatal("resume of an unknown session must fail")
	}
}

func TestSchedulerPersistsStateOnStepError(t *testing.T) {
	g := NewGraph(stepA)
	g.Add(stepA, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		st.Append(AssistantMessage("partial work"))
		return StepResult{}, fmt.Errorf("provider down")
	})

	store := newMemStore()
	s, _ := NewScheduler(g, store)

	_, err := s.Start(context.Background(), "s1", "go")
	if err == nil {
		t.Fatal("expected step error")
	}

	cp, loadErr := store.Load(context.Background(), "s1")
	if loadErr != nil {
		t.Fatalf("state should be persisted on failure: %v", loadErr)
	}
	st, restoreErr := RestoreState(cp.State)
	if restoreErr != nil {
		t.Fatal(restoreErr)
	}
	if st.Last().Content != "partial work" {
		t.Errorf("persisted state lost the step's partial mutation")
	}
}

func TestSchedulerBoundsTransitions(t *testing.T) {
	g := NewGraph(stepA)
	g.Add(stepA, func(ctx context.Context, st *ConversationState) (StepResult, error) {
		return Continue(stepA), nil
	})

	s, _ := NewScheduler(g, newMemStore(), WithMaxTransitions(10))
	if _, err := s.Start(context.Background(), "s1", "go"); err == nil {
		t.Fatal("infinite self-loop must hit the transition bound")
	}
}

func TestNewSchedulerRejectsBadEntry(t *testing.T) {
	g := NewGraph(stepA) // entry never registered
	if _, err := NewScheduler(g, newMemStore()); err == nil {
		t.Fatal("expected graph validation failure")
	}
}

func TestCheckpointRoundTripsState(t *testing.T) {
	st := NewConversationState("plan a trip")
	st.Append(AssistantMessage("working on it"))
	st.Feedback = "more food options"
	st.BumpIteration()
	st.AddUsage(Usage{Prompt: 10, Completion: 5, Total: 15})

	data, err := st.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	got, err := RestoreState(data)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Messages) != 2 || got.Feedback != "more food options" ||
		got.Iterations != 1 || got.Totals.Total != 15 {
		t.Errorf("restored state differs: %+v", got)
	}
	if got.Profile.Adults != 2 || got.Profile.Days != 3 {
		t.Errorf("profile defaults lost in round trip: %+v", got.Profile)
	}
}
