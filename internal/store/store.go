package store

import (
	"context"
	"errors"

	"github.com/nhle/mailshelf/internal/model"
)

// ErrNotFound is returned when a requested message or attachment does not exist.
var ErrNotFound = errors.New("not found")

// MessageFilter controls filtering, sorting, and pagination for message queries.
type MessageFilter struct {
	// Query is matched as a case-insensitive substring. Nil or blank lists everything.
	Query *string
	// SearchBodies extends the match from the subject to the text and HTML bodies.
	SearchBodies bool
	SortBy       string // "id", "subject", "sender", "date", "created_at"
	SortDesc     bool
	Limit        int
	Offset       int
}

// Batch is the set of pending changes produced by one import run. It is
// applied atomically by CommitBatch.
type Batch struct {
	// Creates are inserted with fresh ids; their ID fields are ignored.
	Creates []model.Message
	// Updates replace the mutable fields and the whole attachment list of
	// the message with the same ID.
	Updates []model.Message
	// Run, when set, is recorded in the import history in the same transaction.
	Run *model.ImportRun
}

// Empty reports whether the batch carries no message changes.
func (b Batch) Empty() bool {
	return len(b.Creates) == 0 && len(b.Updates) == 0
}

// Reader is the read side of the store used by queries and views.
type Reader interface {
	FindMessageBySubject(ctx context.Context, subject string) (*model.Message, error)
	GetMessageByID(ctx context.Context, id int64) (*model.Message, error)
	ListMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error)
	CountMessages(ctx context.Context) (int, error)
	GetAttachments(ctx context.Context, messageID int64) ([]model.Attachment, error)
	GetAttachment(ctx context.Context, id int64) (*model.Attachment, error)
}

// Store defines the persistence interface for imported messages, their
// attachments, and the import history.
type Store interface {
	Reader

	// === Mutations ===

	CommitBatch(ctx context.Context, batch Batch) error
	DeleteMessage(ctx context.Context, id int64) error

	// === Import history ===

	GetImportRuns(ctx context.Context, limit int) ([]model.ImportRun, error)
}
