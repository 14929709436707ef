// Package prompt holds the huh forms used to ask the user about import
// conflicts and deletions, both on the plain terminal and inside the TUI.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mailshelf/internal/importer"
	"github.com/nhle/mailshelf/internal/theme"
)

// ConflictForm asks what to do with a message whose subject already exists.
func ConflictForm(subject string, answer *importer.Answer) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[importer.Answer]().
				Title(fmt.Sprintf("Email with subject %q already exists.", subject)).
				Description("Do you want to overwrite it?").
				Options(
					huh.NewOption("Overwrite", importer.AnswerOverwrite),
					huh.NewOption("Skip", importer.AnswerSkip),
					huh.NewOption("Choose an action for all remaining matches", importer.AnswerForAll),
				).
				Value(answer),
		),
	)
}

// ApplyAllForm follows a for-all answer.
func ApplyAllForm(overwriteAll *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Apply to all remaining matches").
				Affirmative("Overwrite all").
				Negative("Skip all").
				Value(overwriteAll),
		),
	)
}

// DeleteForm confirms deleting one message and its attachments.
func DeleteForm(subject string, confirm *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete email %q?", subject)).
				Description("Its attachments are deleted with it.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(confirm),
		),
	)
}

// Terminal implements importer.Decider by running huh forms directly on the
// terminal. It is used by the CLI import command.
type Terminal struct {
	// Accessible switches huh to its line-based prompt mode.
	Accessible bool
}

func (t Terminal) run(ctx context.Context, f *huh.Form) error {
	err := f.WithTheme(theme.Form()).WithAccessible(t.Accessible).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return fmt.Errorf("prompt cancelled: %w", err)
	}
	return err
}

func (t Terminal) AskConflict(ctx context.Context, subject string) (importer.Answer, error) {
	answer := importer.AnswerOverwrite
	if err := t.run(ctx, ConflictForm(subject, &answer)); err != nil {
		return importer.AnswerSkip, err
	}
	return answer, nil
}

func (t Terminal) AskApplyAll(ctx context.Context) (bool, error) {
	overwriteAll := false
	if err := t.run(ctx, ApplyAllForm(&overwriteAll)); err != nil {
		return false, err
	}
	return overwriteAll, nil
}

// ConfirmDelete asks before a message is deleted.
func (t Terminal) ConfirmDelete(ctx context.Context, subject string) (bool, error) {
	confirm := false
	if err := t.run(ctx, DeleteForm(subject, &confirm)); err != nil {
		return false, err
	}
	return confirm, nil
}
