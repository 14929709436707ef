package conflict

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/importer"
)

// next runs the command returned by the bridge, the way the Bubble Tea
// runtime would.
func next(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestBridgeRoutesPrompts(t *testing.T) {
	b := NewBridge()

	cmd := b.Start(func(ctx context.Context, d importer.Decider, progress func(importer.ImportEvent)) (importer.Summary, error) {
		r := importer.NewResolver(importer.StateUndecided, d)

		first, err := r.Resolve(ctx, "Hello", true)
		if err != nil {
			return importer.Summary{}, err
		}
		progress(importer.ImportEvent{Index: 0, Total: 2, Outcome: importer.OutcomeOverwritten})

		second, err := r.Resolve(ctx, "World", true)
		if err != nil {
			return importer.Summary{}, err
		}

		var sum importer.Summary
		for _, dec := range []importer.Decision{first, second} {
			if dec == importer.DecisionOverwrite {
				sum.Overwritten++
			} else {
				sum.Skipped++
			}
		}
		sum.Committed = true
		return sum, nil
	})
	assert.True(t, b.Active())

	msg := next(t, cmd)
	assert.Equal(t, PromptMsg{Subject: "Hello"}, msg)
	b.Answer(importer.AnswerOverwrite)

	msg = next(t, b.WaitForNext())
	assert.IsType(t, ProgressMsg{}, msg)
	assert.Equal(t, "importing 1/2", b.Status())

	msg = next(t, b.WaitForNext())
	assert.Equal(t, PromptMsg{Subject: "World"}, msg)
	b.Answer(importer.AnswerForAll)

	msg = next(t, b.WaitForNext())
	assert.Equal(t, ApplyAllPromptMsg{}, msg)
	b.AnswerApplyAll(false)

	msg = next(t, b.WaitForNext())
	done, ok := msg.(DoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, 1, done.Summary.Overwritten)
	assert.Equal(t, 1, done.Summary.Skipped)

	assert.False(t, b.Active())
	assert.Equal(t, "idle", b.Status())
}

func TestBridgeAbort(t *testing.T) {
	b := NewBridge()
	stop := errors.New("closed")

	cmd := b.Start(func(ctx context.Context, d importer.Decider, _ func(importer.ImportEvent)) (importer.Summary, error) {
		_, err := d.AskConflict(ctx, "x")
		return importer.Summary{}, err
	})

	assert.Equal(t, PromptMsg{Subject: "x"}, next(t, cmd))
	b.Abort(stop)

	done, ok := next(t, b.WaitForNext()).(DoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.Err, stop)
	assert.Equal(t, "last import failed", b.Status())
}

func TestBridgeCancel(t *testing.T) {
	b := NewBridge()

	cmd := b.Start(func(ctx context.Context, d importer.Decider, _ func(importer.ImportEvent)) (importer.Summary, error) {
		_, err := d.AskApplyAll(ctx)
		return importer.Summary{}, err
	})

	assert.Equal(t, ApplyAllPromptMsg{}, next(t, cmd))
	b.Cancel()

	done, ok := next(t, b.WaitForNext()).(DoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.Err, context.Canceled)
}

func TestBridgeSingleRun(t *testing.T) {
	b := NewBridge()
	release := make(chan struct{})

	cmd := b.Start(func(ctx context.Context, _ importer.Decider, _ func(importer.ImportEvent)) (importer.Summary, error) {
		<-release
		return importer.Summary{Committed: true}, nil
	})
	require.NotNil(t, cmd)

	assert.Nil(t, b.Start(func(context.Context, importer.Decider, func(importer.ImportEvent)) (importer.Summary, error) {
		t.Error("second import must not start")
		return importer.Summary{}, nil
	}))

	close(release)
	_, ok := next(t, cmd).(DoneMsg)
	assert.True(t, ok)
}
