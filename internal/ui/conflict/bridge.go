// Package conflict runs an import in the background of the terminal UI and
// routes the importer's conflict prompts to huh forms on screen.
package conflict

import (
	"context"
	"fmt"
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailshelf/internal/importer"
)

// RunState is the state of the background import.
type RunState int

const (
	RunIdle RunState = iota
	RunActive
	RunFailed
)

// PromptMsg asks the UI to show the collision form for Subject.
type PromptMsg struct {
	Subject string
}

// ApplyAllPromptMsg asks the UI to show the overwrite-all / skip-all form.
type ApplyAllPromptMsg struct{}

// ProgressMsg carries the outcome of one file.
type ProgressMsg struct {
	Event importer.ImportEvent
}

// DoneMsg is sent once when the import returns.
type DoneMsg struct {
	Summary importer.Summary
	Err     error
}

// ImportFunc performs one import using the given decider and progress
// callback. The bridge supplies both.
type ImportFunc func(ctx context.Context, d importer.Decider, progress func(importer.ImportEvent)) (importer.Summary, error)

type reply struct {
	answer       importer.Answer
	overwriteAll bool
	err          error
}

// Bridge implements importer.Decider for an import running in its own
// goroutine. Each question is posted to the Bubble Tea runtime as a message
// and the goroutine blocks until the UI calls Answer, AnswerApplyAll or
// Abort.
type Bridge struct {
	msgCh   chan tea.Msg
	replyCh chan reply

	mu      gosync.Mutex
	state   RunState
	done    int
	total   int
	lastErr error
	cancel  context.CancelFunc
}

// NewBridge creates an idle bridge.
func NewBridge() *Bridge {
	return &Bridge{
		msgCh:   make(chan tea.Msg, 16),
		replyCh: make(chan reply, 1),
	}
}

// Start runs fn in a goroutine and returns a command that delivers the
// first message from it. Start returns nil while another import is active,
// so at most one batch runs at a time.
func (b *Bridge) Start(fn ImportFunc) tea.Cmd {
	b.mu.Lock()
	if b.state == RunActive {
		b.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.state = RunActive
	b.done, b.total = 0, 0
	b.lastErr = nil
	b.cancel = cancel
	b.mu.Unlock()

	// Drop a reply left over from a prompt of a cancelled run.
	select {
	case <-b.replyCh:
	default:
	}

	go func() {
		defer cancel()
		sum, err := fn(ctx, b, b.progress)

		b.mu.Lock()
		if err != nil {
			b.state = RunFailed
			b.lastErr = err
		} else {
			b.state = RunIdle
		}
		b.cancel = nil
		b.mu.Unlock()

		b.msgCh <- DoneMsg{Summary: sum, Err: err}
	}()

	return b.WaitForNext()
}

// Cancel stops the active import. A pending prompt returns the context
// error, so nothing from the batch is committed.
func (b *Bridge) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

// Active reports whether an import is running.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == RunActive
}

// Status returns a short description for the header bar.
func (b *Bridge) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case RunActive:
		if b.total > 0 {
			return fmt.Sprintf("importing %d/%d", b.done, b.total)
		}
		return "importing"
	case RunFailed:
		return "last import failed"
	default:
		return "idle"
	}
}

// WaitForNext returns a command that waits for the next message from the
// running import. Call it again after handling every message except
// DoneMsg.
func (b *Bridge) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.msgCh
		if !ok {
			return nil
		}
		return msg
	}
}

// AskConflict posts a PromptMsg and waits for Answer or Abort.
func (b *Bridge) AskConflict(ctx context.Context, subject string) (importer.Answer, error) {
	r, err := b.ask(ctx, PromptMsg{Subject: subject})
	if err != nil {
		return importer.AnswerSkip, err
	}
	return r.answer, r.err
}

// AskApplyAll posts an ApplyAllPromptMsg and waits for AnswerApplyAll or
// Abort.
func (b *Bridge) AskApplyAll(ctx context.Context) (bool, error) {
	r, err := b.ask(ctx, ApplyAllPromptMsg{})
	if err != nil {
		return false, err
	}
	return r.overwriteAll, r.err
}

// Answer replies to a PromptMsg.
func (b *Bridge) Answer(a importer.Answer) {
	b.send(reply{answer: a})
}

// AnswerApplyAll replies to an ApplyAllPromptMsg.
func (b *Bridge) AnswerApplyAll(overwriteAll bool) {
	b.send(reply{overwriteAll: overwriteAll})
}

// Abort replies to either prompt with err, which stops the import.
func (b *Bridge) Abort(err error) {
	b.send(reply{err: err})
}

// send never blocks the UI: only one prompt is outstanding at a time, so
// the one-slot buffer is free unless the import already gave up waiting.
func (b *Bridge) send(r reply) {
	select {
	case b.replyCh <- r:
	default:
	}
}

func (b *Bridge) ask(ctx context.Context, msg tea.Msg) (reply, error) {
	select {
	case b.msgCh <- msg:
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}

	select {
	case r := <-b.replyCh:
		return r, nil
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

// progress records the event and forwards it without blocking the import.
func (b *Bridge) progress(evt importer.ImportEvent) {
	b.mu.Lock()
	b.done = evt.Index + 1
	b.total = evt.Total
	b.mu.Unlock()

	select {
	case b.msgCh <- ProgressMsg{Event: evt}:
	default:
		// Drop if the UI is behind; the summary still reports every file.
	}
}
