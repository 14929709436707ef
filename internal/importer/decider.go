package importer

import (
	"context"
	"errors"
)

// ErrScriptExhausted is returned by ScriptedDecider when asked more
// questions than it has answers for.
var ErrScriptExhausted = errors.New("scripted decider has no answers left")

// ScriptedDecider replays fixed answers in order and records what it was
// asked. It is used by tests and by non-interactive callers that know the
// collisions ahead of time.
type ScriptedDecider struct {
	Answers  []Answer
	ApplyAll []bool

	// Asked collects the subjects passed to AskConflict.
	Asked []string
	// ApplyAllAsked counts AskApplyAll calls.
	ApplyAllAsked int
}

func (d *ScriptedDecider) AskConflict(_ context.Context, subject string) (Answer, error) {
	d.Asked = append(d.Asked, subject)
	if len(d.Answers) == 0 {
		return AnswerSkip, ErrScriptExhausted
	}
	a := d.Answers[0]
	d.Answers = d.Answers[1:]
	return a, nil
}

func (d *ScriptedDecider) AskApplyAll(_ context.Context) (bool, error) {
	d.ApplyAllAsked++
	if len(d.ApplyAll) == 0 {
		return false, ErrScriptExhausted
	}
	v := d.ApplyAll[0]
	d.ApplyAll = d.ApplyAll[1:]
	return v, nil
}

// FixedDecider gives the same answer to every collision. With AnswerForAll
// the follow-up choice is skip-all.
type FixedDecider struct {
	Answer Answer
}

func (d FixedDecider) AskConflict(context.Context, string) (Answer, error) {
	return d.Answer, nil
}

func (d FixedDecider) AskApplyAll(context.Context) (bool, error) {
	return d.Answer == AnswerOverwrite, nil
}
