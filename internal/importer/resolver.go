package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/mailshelf/internal/model"
)

// State is the batch-wide conflict policy held by a Resolver.
type State int

const (
	// StateUndecided asks the Decider on every collision.
	StateUndecided State = iota
	// StateOverwriteAll overwrites every remaining collision.
	StateOverwriteAll
	// StateSkipAll skips every remaining collision.
	StateSkipAll
)

func (s State) String() string {
	switch s {
	case StateUndecided:
		return "undecided"
	case StateOverwriteAll:
		return "overwrite-all"
	case StateSkipAll:
		return "skip-all"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StateFromPolicy maps a configured on-conflict policy to the initial state.
func StateFromPolicy(policy string) (State, error) {
	switch policy {
	case "", model.OnConflictAsk:
		return StateUndecided, nil
	case model.OnConflictOverwrite:
		return StateOverwriteAll, nil
	case model.OnConflictSkip:
		return StateSkipAll, nil
	default:
		return StateUndecided, fmt.Errorf("unknown conflict policy %q", policy)
	}
}

// Decision is what the pipeline does with one candidate.
type Decision int

const (
	DecisionCreate Decision = iota
	DecisionOverwrite
	DecisionSkip
)

func (d Decision) String() string {
	switch d {
	case DecisionCreate:
		return "create"
	case DecisionOverwrite:
		return "overwrite"
	case DecisionSkip:
		return "skip"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Answer is the user's reply to a single collision prompt.
type Answer int

const (
	AnswerOverwrite Answer = iota
	AnswerSkip
	// AnswerForAll defers to a follow-up AskApplyAll prompt.
	AnswerForAll
)

func (a Answer) String() string {
	switch a {
	case AnswerOverwrite:
		return "overwrite"
	case AnswerSkip:
		return "skip"
	case AnswerForAll:
		return "for-all"
	default:
		return fmt.Sprintf("Answer(%d)", int(a))
	}
}

// Decider prompts the user about collisions. Implementations may block.
type Decider interface {
	// AskConflict asks what to do with a candidate whose subject is
	// already stored.
	AskConflict(ctx context.Context, subject string) (Answer, error)

	// AskApplyAll follows AnswerForAll and chooses between overwriting
	// and skipping every remaining collision.
	AskApplyAll(ctx context.Context) (overwriteAll bool, err error)
}

// ErrNoDecider is returned when a collision needs a prompt but the resolver
// was built without a Decider.
var ErrNoDecider = errors.New("conflict needs a decision but no prompt is available")

// Resolver decides Create, Overwrite or Skip for each candidate of one
// import batch. Once an apply-to-all choice is made it holds for the rest of
// the batch. Build a new Resolver per batch.
type Resolver struct {
	state   State
	decider Decider
}

// NewResolver returns a resolver starting in the given state.
func NewResolver(initial State, decider Decider) *Resolver {
	return &Resolver{state: initial, decider: decider}
}

// State returns the current batch-wide policy.
func (r *Resolver) State() State {
	return r.state
}

// Resolve returns the decision for a candidate with the given subject.
// exists reports whether a record with that subject is already known.
func (r *Resolver) Resolve(ctx context.Context, subject string, exists bool) (Decision, error) {
	if !exists {
		return DecisionCreate, nil
	}

	switch r.state {
	case StateOverwriteAll:
		return DecisionOverwrite, nil
	case StateSkipAll:
		return DecisionSkip, nil
	}

	if r.decider == nil {
		return DecisionSkip, ErrNoDecider
	}

	answer, err := r.decider.AskConflict(ctx, subject)
	if err != nil {
		return DecisionSkip, fmt.Errorf("asking about %q: %w", subject, err)
	}

	switch answer {
	case AnswerOverwrite:
		return DecisionOverwrite, nil
	case AnswerSkip:
		return DecisionSkip, nil
	case AnswerForAll:
		overwriteAll, err := r.decider.AskApplyAll(ctx)
		if err != nil {
			return DecisionSkip, fmt.Errorf("asking for a batch-wide choice: %w", err)
		}
		if overwriteAll {
			r.state = StateOverwriteAll
			return DecisionOverwrite, nil
		}
		r.state = StateSkipAll
		return DecisionSkip, nil
	default:
		return DecisionSkip, fmt.Errorf("unknown answer %v", answer)
	}
}
