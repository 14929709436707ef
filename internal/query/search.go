// Package query searches and sorts stored messages.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/store"
)

// Scope selects the fields a search matches against.
type Scope int

const (
	// ScopeSubject matches the subject only.
	ScopeSubject Scope = iota
	// ScopeSubjectAndBody matches the subject, the text body or the HTML body.
	ScopeSubjectAndBody
)

func (s Scope) String() string {
	if s == ScopeSubjectAndBody {
		return "subject+body"
	}
	return "subject"
}

// Toggle returns the other scope.
func (s Scope) Toggle() Scope {
	if s == ScopeSubject {
		return ScopeSubjectAndBody
	}
	return ScopeSubject
}

// Search returns the messages whose scoped fields contain query, ignoring
// case. A blank query lists every message. Results are in store order.
func Search(ctx context.Context, r store.Reader, scope Scope, query string) ([]model.Message, error) {
	filter := store.MessageFilter{SearchBodies: scope == ScopeSubjectAndBody}
	if q := strings.TrimSpace(query); q != "" {
		filter.Query = &q
	}

	msgs, err := r.ListMessages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("searching %s for %q: %w", scope, query, err)
	}
	return msgs, nil
}

// Describe renders the status line text for a search.
func Describe(scope Scope, query string, count int) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Sprintf("Results: %d | Filter: none", count)
	}
	label := "Subject"
	if scope == ScopeSubjectAndBody {
		label = "Subject+Body"
	}
	return fmt.Sprintf("Results: %d | Filter: %s contains '%s'", count, label, q)
}
