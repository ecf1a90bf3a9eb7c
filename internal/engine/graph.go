package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StepID identifies a node of the workflow graph. Routers return StepIDs
// instead of bare strings so the scheduler's dispatch table can be checked
// exhaustively.
type StepID string

const (
	StepValidate StepID = "validate"
	StepProfile  StepID = "update_profile"
	StepResearch StepID = "research"
	StepDispatch StepID = "dispatch_tools"
	StepFormat   StepID = "format"
	StepReview   StepID = "review"
	StepConfirm  StepID = "confirm"
	StepEnd      StepID = "end"
)

// ResultKind is the three-state outcome of a step execution.
type ResultKind string

const (
	KindContinue  ResultKind = "continue"
	KindSuspend   ResultKind = "suspend"
	KindTerminate ResultKind = "terminate"
)

// StepResult tells the scheduler what to do after a step ran.
type StepResult struct {
	Kind   ResultKind
	Next   StepID // target for KindContinue
	Prompt string // payload surfaced to the caller for KindSuspend
}

// Continue routes to the next step.
func Continue(next StepID) StepResult { return StepResult{Kind: KindContinue, Next: next} }

// Suspend pauses the session awaiting external input, surfacing prompt.
func Suspend(prompt string) StepResult { return StepResult{Kind: KindSuspend, Prompt: prompt} }

// Terminate ends the session successfully.
func Terminate() StepResult { return StepResult{Kind: KindTerminate} }

// StepFunc is a single named unit of work operating on ConversationState.
// Step functions mutate state and decide routing; they never persist it.
type StepFunc func(ctx context.Context, st *ConversationState) (StepResult, error)

// Graph is the static dispatch table of the workflow.
type Graph struct {
	steps map[StepID]StepFunc
	entry StepID
}

// NewGraph creates an empty graph entered at entry.
func NewGraph(entry StepID) *Graph {
	return &Graph{steps: make(map[StepID]StepFunc), entry: entry}
}

// Add registers a step function under an id.
func (g *Graph) Add(id StepID, fn StepFunc) {
	g.steps[id] = fn
}

// Validate checks that the entry point resolves to a registered step.
func (g *Graph) Validate() error {
	if _, ok := g.steps[g.entry]; !ok {
		return fmt.Errorf("graph entry step %s is not registered", g.entry)
	}
	return nil
}

// ErrNotFound is returned by checkpoint stores for unknown sessions.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is a durable snapshot of a session: the serialized state plus
// the step to run next. Saved after every step so a suspension (or a crash)
// can be resumed at exactly the right node.
type Checkpoint struct {
	SessionID string    `json:"session_id"`
	Step      StepID    `json:"step"`
	Suspended bool      `json:"suspended"`
	Prompt    string    `json:"prompt,omitempty"`
	Terminal  bool      `json:"terminal"`
	State     []byte    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckpointStore persists whole-state snapshots keyed by session id. Session
// id is the exclusive partition key: no cross-session transactions exist.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, sessionID string) (Checkpoint, error)
	Delete(ctx context.Context, sessionID string) error
}

// Outcome is what a scheduler run hands back to the transport layer: either
// the session suspended with a prompt for the user, or it terminated.
type Outcome struct {
	Kind   ResultKind
	Prompt string
	State  *ConversationState
}

// Scheduler executes the graph for one session at a time, persisting a
// checkpoint after every step. Multiple schedulers (or goroutines) may run
// distinct sessions concurrently; the checkpoint store is the only shared
// resource.
type Scheduler struct {
	graph          *Graph
	store          CheckpointStore
	hooks          Hooks
	callTimeout    time.Duration // per-step external-call timeout, 0 = none
	maxTransitions int           // safety bound on scheduler transitions
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithHooks attaches observability hooks.
func WithHooks(hooks ...Hook) SchedulerOption {
	return func(s *Scheduler) { s.hooks = Hooks(hooks) }
}

// WithCallTimeout bounds each step's external calls.
func WithCallTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.callTimeout = d }
}

// WithMaxTransitions overrides the scheduler transition bound.
func WithMaxTransitions(n int) SchedulerOption {
	return func(s *Scheduler) { s.maxTransitions = n }
}

// NewScheduler creates a scheduler over a validated graph.
func NewScheduler(g *Graph, store CheckpointStore, opts ...SchedulerOption) (*Scheduler, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		graph:          g,
		store:          store,
		maxTransitions: 256,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start seeds a new session from the initial user request and runs it until
// suspension or termination.
func (s *Scheduler) Start(ctx context.Context, sessionID, request string) (Outcome, error) {
	st := NewConversationState(request)
	return s.run(ctx, sessionID, s.graph.entry, st)
}

// Resume merges an external reply into a suspended session and re-enters the
// suspended step.
func (s *Scheduler) Resume(ctx context.Context, sessionID, reply string) (Outcome, error) {
	cp, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if cp.Terminal {
		return Outcome{}, fmt.Errorf("session %s already terminated", sessionID)
	}
	if !cp.Suspended {
		return Outcome{}, fmt.Errorf("session %s is not awaiting input", sessionID)
	}

	st, err := RestoreState(cp.State)
	if err != nil {
		return Outcome{}, err
	}
	st.Append(UserMessage(reply))
	s.hooks.OnResume(ctx, cp.Step, reply)

	return s.run(ctx, sessionID, cp.Step, st)
}

// run executes steps until the session suspends or terminates. The checkpoint
// written after each step carries the NEXT step to run, so a restore re-enters
// the graph at the right node.
func (s *Scheduler) run(ctx context.Context, sessionID string, cur StepID, st *ConversationState) (Outcome, error) {
	for i := 0; i < s.maxTransitions; i++ {
		select {
		case <-ctx.Done():
			return Outcome{}, fmt.Errorf("session cancelled: %w", ctx.Err())
		default:
		}

		fn, ok := s.graph.steps[cur]
		if !ok {
			return Outcome{}, fmt.Errorf("no step registered for %s", cur)
		}

		s.hooks.OnStepStart(ctx, cur, st)

		stepCtx := ctx
		var cancel context.CancelFunc
		if s.callTimeout > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		}
		res, err := fn(stepCtx, st)
		if cancel != nil {
			cancel()
		}
		s.hooks.OnStepEnd(ctx, cur, st, res, err)
		if err != nil {
			// Persist the last good state before surfacing the failure so an
			// operator can inspect or resume the session.
			_ = s.checkpoint(ctx, sessionID, cur, st, StepResult{Kind: KindContinue, Next: cur})
			return Outcome{}, WrapStepError(err, cur, "execute")
		}

		switch res.Kind {
		case KindContinue:
			if err := s.checkpoint(ctx, sessionID, res.Next, st, res); err != nil {
				return Outcome{}, WrapStepError(err, cur, "checkpoint")
			}
			cur = res.Next

		case KindSuspend:
			if err := s.checkpoint(ctx, sessionID, cur, st, res); err != nil {
				return Outcome{}, WrapStepError(err, cur, "checkpoint")
			}
			s.hooks.OnSuspend(ctx, cur, res.Prompt)
			return Outcome{Kind: KindSuspend, Prompt: res.Prompt, State: st}, nil

		case KindTerminate:
			if err := s.checkpoint(ctx, sessionID, StepEnd, st, res); err != nil {
				return Outcome{}, WrapStepError(err, cur, "checkpoint")
			}
			s.hooks.OnDone(ctx, st)
			return Outcome{Kind: KindTerminate, State: st}, nil

		default:
			return Outcome{}, fmt.Errorf("step %s returned unknown result kind %q", cur, res.Kind)
		}
	}
	return Outcome{}, fmt.Errorf("session %s exceeded %d step transitions", sessionID, s.maxTransitions)
}

// checkpoint persists the current state with the step to run next.
func (s *Scheduler) checkpoint(ctx context.Context, sessionID string, next StepID, st *ConversationState, res StepResult) error {
	data, err := st.Snapshot()
	if err != nil {
		return err
	}
	return s.store.Save(ctx, Checkpoint{
		SessionID: sessionID,
		Step:      next,
		Suspended: res.Kind == KindSuspend,
		Prompt:    res.Prompt,
		Terminal:  res.Kind == KindTerminate,
		State:     data,
		UpdatedAt: time.Now().UTC(),
	})
}
