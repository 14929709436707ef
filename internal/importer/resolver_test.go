package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/importer"
)

func TestResolverNoCollisionNeverAsks(t *testing.T) {
	d := &importer.ScriptedDecider{}
	r := importer.NewResolver(importer.StateUndecided, d)

	got, err := r.Resolve(context.Background(), "new", false)
	require.NoError(t, err)
	assert.Equal(t, importer.DecisionCreate, got)
	assert.Empty(t, d.Asked)
}

func TestResolverSingleAnswers(t *testing.T) {
	ctx := context.Background()
	d := &importer.ScriptedDecider{Answers: []importer.Answer{
		importer.AnswerOverwrite, importer.AnswerSkip, importer.AnswerOverwrite,
	}}
	r := importer.NewResolver(importer.StateUndecided, d)

	var got []importer.Decision
	for _, s := range []string{"a", "b", "c"} {
		dec, err := r.Resolve(ctx, s, true)
		require.NoError(t, err)
		got = append(got, dec)
	}

	assert.Equal(t, []importer.Decision{
		importer.DecisionOverwrite, importer.DecisionSkip, importer.DecisionOverwrite,
	}, got)
	assert.Equal(t, []string{"a", "b", "c"}, d.Asked)
	assert.Equal(t, importer.StateUndecided, r.State())
}

func TestResolverApplyAll(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		wantState importer.State
		wantEach  importer.Decision
	}{
		{name: "overwrite all", overwrite: true, wantState: importer.StateOverwriteAll, wantEach: importer.DecisionOverwrite},
		{name: "skip all", overwrite: false, wantState: importer.StateSkipAll, wantEach: importer.DecisionSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			d := &importer.ScriptedDecider{
				Answers:  []importer.Answer{importer.AnswerForAll},
				ApplyAll: []bool{tt.overwrite},
			}
			r := importer.NewResolver(importer.StateUndecided, d)

			first, err := r.Resolve(ctx, "first", true)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEach, first)
			assert.Equal(t, tt.wantState, r.State())

			for i := 0; i < 5; i++ {
				dec, err := r.Resolve(ctx, "again", true)
				require.NoError(t, err)
				assert.Equal(t, tt.wantEach, dec)
			}

			created, err := r.Resolve(ctx, "fresh", false)
			require.NoError(t, err)
			assert.Equal(t, importer.DecisionCreate, created)

			assert.Len(t, d.Asked, 1, "no prompts after an apply-to-all choice")
			assert.Equal(t, 1, d.ApplyAllAsked)
		})
	}
}

func TestResolverInitialPolicy(t *testing.T) {
	tests := []struct {
		policy string
		state  importer.State
		want   importer.Decision
	}{
		{policy: "overwrite", state: importer.StateOverwriteAll, want: importer.DecisionOverwrite},
		{policy: "skip", state: importer.StateSkipAll, want: importer.DecisionSkip},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			state, err := importer.StateFromPolicy(tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.state, state)

			r := importer.NewResolver(state, nil)
			got, err := r.Resolve(context.Background(), "x", true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	state, err := importer.StateFromPolicy("ask")
	require.NoError(t, err)
	assert.Equal(t, importer.StateUndecided, state)

	_, err = importer.StateFromPolicy("merge")
	assert.Error(t, err)
}

func TestResolverErrors(t *testing.T) {
	ctx := context.Background()

	_, err := importer.NewResolver(importer.StateUndecided, nil).Resolve(ctx, "x", true)
	assert.ErrorIs(t, err, importer.ErrNoDecider)

	_, err = importer.NewResolver(importer.StateUndecided, &importer.ScriptedDecider{}).Resolve(ctx, "x", true)
	assert.ErrorIs(t, err, importer.ErrScriptExhausted)

	d := &importer.ScriptedDecider{Answers: []importer.Answer{importer.AnswerForAll}}
	r := importer.NewResolver(importer.StateUndecided, d)
	_, err = r.Resolve(ctx, "x", true)
	assert.ErrorIs(t, err, importer.ErrScriptExhausted)
	assert.Equal(t, importer.StateUndecided, r.State())
}
