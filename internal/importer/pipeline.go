// Package importer turns message files into stored records: it maps parsed
// messages, resolves subject collisions and commits each batch as one unit.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailshelf/internal/mailparse"
	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/store"
)

var (
	// ErrCommitFailed wraps a store error that rejected the batch commit.
	// Nothing from the batch is visible when it is returned.
	ErrCommitFailed = errors.New("import commit failed")

	// ErrAborted is returned when a conflict prompt failed or was cancelled.
	// Nothing from the batch is committed.
	ErrAborted = errors.New("import aborted")
)

// FileError records why one input file was not imported.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Outcome is the result of processing one file.
type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeOverwritten Outcome = "overwritten"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
)

// ImportEvent reports the outcome of one file while a batch runs.
type ImportEvent struct {
	Index   int
	Total   int
	Path    string
	Subject string
	Outcome Outcome
	Err     error
}

// Summary counts the outcomes of one batch. The four counters always add
// up to the number of input files.
type Summary struct {
	Created     int
	Overwritten int
	Skipped     int
	Failed      int

	// Errors lists the per-file failures in input order.
	Errors []*FileError

	// Committed is true once the batch is persisted.
	Committed bool
	// RunID identifies the import history row of a committed batch.
	RunID string
}

// Total returns the number of files accounted for.
func (s Summary) Total() int {
	return s.Created + s.Overwritten + s.Skipped + s.Failed
}

func (s Summary) String() string {
	out := fmt.Sprintf("Imported: %d, Overwritten: %d, Skipped: %d",
		s.Created, s.Overwritten, s.Skipped)
	if s.Failed > 0 {
		out += fmt.Sprintf(", Failed: %d", s.Failed)
	}
	return out
}

// LogAttrs returns the counters as slog key/value pairs.
func (s Summary) LogAttrs() []any {
	return []any{
		"created", s.Created,
		"overwritten", s.Overwritten,
		"skipped", s.Skipped,
		"failed", s.Failed,
		"committed", s.Committed,
	}
}

// ParseFunc reads one message file.
type ParseFunc func(path string) (*mailparse.Message, error)

// Pipeline imports batches of message files into a store.
type Pipeline struct {
	store   store.Store
	decider Decider
	policy  State
	parse   ParseFunc
	logger  *slog.Logger

	// Progress, when set, is called after every file.
	Progress func(ImportEvent)
}

// NewPipeline returns a pipeline that writes to s. Every batch starts with
// a fresh Resolver in the policy state and asks decider on collisions.
func NewPipeline(s store.Store, decider Decider, policy State, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:   s,
		decider: decider,
		policy:  policy,
		parse:   mailparse.ParseFile,
		logger:  logger,
	}
}

// WithParser replaces the message file parser.
func (p *Pipeline) WithParser(fn ParseFunc) *Pipeline {
	p.parse = fn
	return p
}

// batch accumulates the pending mutations of one Import call.
type batch struct {
	creates []model.Message
	updates []model.Message

	// createBySubject indexes creates so later files in the same batch
	// collide with them.
	createBySubject map[string]int
	// updateByID indexes updates so a record overwritten twice is written
	// once with the last candidate.
	updateByID map[int64]int
}

func newBatch() *batch {
	return &batch{
		createBySubject: make(map[string]int),
		updateByID:      make(map[int64]int),
	}
}

// Import processes paths in order and commits the resulting creates and
// overwrites in a single transaction together with an import history row.
//
// A file that cannot be parsed is counted as failed and the batch goes on.
// If a conflict prompt fails, nothing is committed and the returned error
// matches ErrAborted. If the commit is rejected, the returned summary has
// Committed unset and the error matches ErrCommitFailed.
func (p *Pipeline) Import(ctx context.Context, paths []string) (Summary, error) {
	var sum Summary
	if len(paths) == 0 {
		sum.Committed = true
		return sum, nil
	}

	started := time.Now()
	resolver := NewResolver(p.policy, p.decider)
	pending := newBatch()

	p.logger.Info("import started", "files", len(paths), "policy", p.policy.String())

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("%w: %w", ErrAborted, err)
		}

		evt := ImportEvent{Index: i, Total: len(paths), Path: path}

		outcome, subject, err := p.importFile(ctx, resolver, pending, path)
		if errors.Is(err, ErrAborted) {
			p.logger.Warn("import aborted", "path", path, "error", err)
			return sum, err
		}

		evt.Subject = subject
		evt.Outcome = outcome
		switch outcome {
		case OutcomeCreated:
			sum.Created++
		case OutcomeOverwritten:
			sum.Overwritten++
		case OutcomeSkipped:
			sum.Skipped++
		case OutcomeFailed:
			sum.Failed++
			fe := &FileError{Path: path, Err: err}
			sum.Errors = append(sum.Errors, fe)
			evt.Err = fe
			p.logger.Warn("file not imported", "path", path, "error", err)
		}

		p.logger.Debug("file processed", "path", path, "subject", subject, "outcome", string(outcome))
		if p.Progress != nil {
			p.Progress(evt)
		}
	}

	run := &model.ImportRun{
		ID:          uuid.New().String(),
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Created:     sum.Created,
		Overwritten: sum.Overwritten,
		Skipped:     sum.Skipped,
		Failed:      sum.Failed,
	}

	err := p.store.CommitBatch(ctx, store.Batch{
		Creates: pending.creates,
		Updates: pending.updates,
		Run:     run,
	})
	if err != nil {
		p.logger.Error("import commit failed", append(sum.LogAttrs(), "error", err)...)
		return sum, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	sum.Committed = true
	sum.RunID = run.ID
	p.logger.Info("import finished", sum.LogAttrs()...)
	return sum, nil
}

// importFile parses, maps and resolves one file, recording any mutation in
// pending. A non-nil error with OutcomeFailed is a per-file failure; an
// error matching ErrAborted stops the batch.
func (p *Pipeline) importFile(
	ctx context.Context,
	resolver *Resolver,
	pending *batch,
	path string,
) (Outcome, string, error) {
	parsed, err := p.parse(path)
	if err != nil {
		return OutcomeFailed, "", err
	}

	candidate := MapMessage(parsed)
	subject := candidate.Subject

	createIdx, pendingCreate := pending.createBySubject[subject]

	var existingID int64
	exists := pendingCreate
	if !pendingCreate {
		existing, err := p.store.FindMessageBySubject(ctx, subject)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return OutcomeFailed, subject, fmt.Errorf("looking up subject: %w", err)
		default:
			exists = true
			existingID = existing.ID
		}
	}

	decision, err := resolver.Resolve(ctx, subject, exists)
	if err != nil {
		return OutcomeSkipped, subject, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	switch decision {
	case DecisionCreate:
		pending.createBySubject[subject] = len(pending.creates)
		pending.creates = append(pending.creates, candidate)
		return OutcomeCreated, subject, nil

	case DecisionOverwrite:
		if pendingCreate {
			pending.creates[createIdx] = candidate
			return OutcomeOverwritten, subject, nil
		}
		candidate.ID = existingID
		if idx, ok := pending.updateByID[existingID]; ok {
			pending.updates[idx] = candidate
		} else {
			pending.updateByID[existingID] = len(pending.updates)
			pending.updates = append(pending.updates, candidate)
		}
		return OutcomeOverwritten, subject, nil

	default:
		return OutcomeSkipped, subject, nil
	}
}
