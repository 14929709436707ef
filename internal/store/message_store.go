package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/mailshelf/internal/model"
)

// messageColumns lists the message columns plus the per-message attachment
// aggregates used by list views.
const messageColumns = `
	m.id, m.subject, m.sender, m.date, m.html_body, m.text_body,
	m.created_at, m.updated_at,
	(SELECT COUNT(*) FROM attachments a WHERE a.message_id = m.id) AS attachment_count,
	(SELECT COALESCE(SUM(a.size), 0) FROM attachments a WHERE a.message_id = m.id) AS attachment_bytes`

// allowedMessageSorts maps MessageFilter.SortBy values to columns.
var allowedMessageSorts = map[string]string{
	"id":          "m.id",
	"subject":     "m.subject",
	"sender":      "m.sender",
	"date":        "m.date",
	"created_at":  "m.created_at",
	"attachments": "attachment_count",
	"size":        "attachment_bytes",
}

// FindMessageBySubject returns the message whose subject equals subject
// exactly. When several messages share the subject, the one with the lowest
// id (the earliest imported) wins. Attachments are not loaded.
func (s *SQLiteStore) FindMessageBySubject(
	ctx context.Context,
	subject string,
) (*model.Message, error) {
	var msg model.Message
	err := s.db.GetContext(ctx, &msg,
		"SELECT "+messageColumns+" FROM messages m WHERE m.subject = ? ORDER BY m.id LIMIT 1",
		subject,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message with subject %q: %w", subject, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding message by subject: %w", err)
	}
	localizeMessage(&msg)
	return &msg, nil
}

// GetMessageByID retrieves a single message including its attachments.
func (s *SQLiteStore) GetMessageByID(
	ctx context.Context,
	id int64,
) (*model.Message, error) {
	var msg model.Message
	err := s.db.GetContext(ctx, &msg,
		"SELECT "+messageColumns+" FROM messages m WHERE m.id = ?", id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting message %d: %w", id, err)
	}
	localizeMessage(&msg)

	atts, err := s.GetAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.Attachments = atts

	return &msg, nil
}

// ListMessages retrieves messages matching the provided filter. Attachment
// payloads are not loaded; AttachmentCount and AttachmentBytes are set.
func (s *SQLiteStore) ListMessages(
	ctx context.Context,
	filter MessageFilter,
) ([]model.Message, error) {
	var conditions []string
	var args []interface{}

	if filter.Query != nil && strings.TrimSpace(*filter.Query) != "" {
		q := "%" + escapeLike(foldString(strings.TrimSpace(*filter.Query))) + "%"
		if filter.SearchBodies {
			conditions = append(conditions,
				`(casefold(m.subject) LIKE ? ESCAPE '\' OR casefold(m.text_body) LIKE ? ESCAPE '\' OR casefold(m.html_body) LIKE ? ESCAPE '\')`)
			args = append(args, q, q, q)
		} else {
			conditions = append(conditions, `casefold(m.subject) LIKE ? ESCAPE '\'`)
			args = append(args, q)
		}
	}

	query := "SELECT " + messageColumns + " FROM messages m"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "m.id"
	if col, ok := allowedMessageSorts[filter.SortBy]; ok {
		sortBy = col
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	// id breaks ties so store iteration order is deterministic.
	query += fmt.Sprintf(" ORDER BY %s %s, m.id ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var msgs []model.Message
	if err := s.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	for i := range msgs {
		localizeMessage(&msgs[i])
	}

	return msgs, nil
}

// CountMessages returns the total number of stored messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM messages"); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

// GetAttachments retrieves the attachments of a message in source order.
func (s *SQLiteStore) GetAttachments(
	ctx context.Context,
	messageID int64,
) ([]model.Attachment, error) {
	var atts []model.Attachment
	err := s.db.SelectContext(ctx, &atts, `
		SELECT id, message_id, position, file_name, content_type, size, data
		FROM attachments WHERE message_id = ? ORDER BY position, id`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attachments for message %d: %w", messageID, err)
	}
	return atts, nil
}

// GetAttachment retrieves a single attachment by ID.
func (s *SQLiteStore) GetAttachment(
	ctx context.Context,
	id int64,
) (*model.Attachment, error) {
	var att model.Attachment
	err := s.db.GetContext(ctx, &att, `
		SELECT id, message_id, position, file_name, content_type, size, data
		FROM attachments WHERE id = ?`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting attachment %d: %w", id, err)
	}
	return &att, nil
}

// DeleteMessage removes a message by ID. Cascades to its attachments.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting message %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	return nil
}

// CommitBatch applies every pending create and update of an import run,
// plus the run's history row, in a single transaction. Either all of it
// becomes visible or none of it does.
func (s *SQLiteStore) CommitBatch(ctx context.Context, batch Batch) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for i, msg := range batch.Creates {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO messages (
				subject, sender, date, html_body, text_body, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			msg.Subject, msg.Sender, msg.Date.UTC(), msg.HTMLBody, msg.TextBody,
			now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting message %d (%q): %w", i, msg.Subject, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading id of message %q: %w", msg.Subject, err)
		}
		if err := insertAttachments(ctx, tx, id, msg.Attachments); err != nil {
			return err
		}
	}

	for _, msg := range batch.Updates {
		result, err := tx.ExecContext(ctx, `
			UPDATE messages SET
				subject = ?, sender = ?, date = ?, html_body = ?, text_body = ?,
				updated_at = ?
			WHERE id = ?`,
			msg.Subject, msg.Sender, msg.Date.UTC(), msg.HTMLBody, msg.TextBody,
			now, msg.ID,
		)
		if err != nil {
			return fmt.Errorf("updating message %d: %w", msg.ID, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("updating message %d: %w", msg.ID, ErrNotFound)
		}

		// Overwrite replaces the attachment list wholesale.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM attachments WHERE message_id = ?", msg.ID,
		); err != nil {
			return fmt.Errorf("clearing attachments of message %d: %w", msg.ID, err)
		}
		if err := insertAttachments(ctx, tx, msg.ID, msg.Attachments); err != nil {
			return err
		}
	}

	if batch.Run != nil {
		if err := insertImportRun(ctx, tx, *batch.Run); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// insertAttachments writes atts for messageID, numbering positions in slice
// order. Size is always derived from the payload length.
func insertAttachments(
	ctx context.Context,
	tx *sqlx.Tx,
	messageID int64,
	atts []model.Attachment,
) error {
	if len(atts) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO attachments (
			message_id, position, file_name, content_type, size, data
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing attachment insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range atts {
		_, err := stmt.ExecContext(ctx,
			messageID, i, a.FileName, a.ContentType, int64(len(a.Data)), a.Data,
		)
		if err != nil {
			return fmt.Errorf("inserting attachment %q of message %d: %w", a.FileName, messageID, err)
		}
	}
	return nil
}

// escapeLike escapes the LIKE wildcards so the query is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// localizeMessage converts stored UTC timestamps to local time.
func localizeMessage(m *model.Message) {
	m.Date = m.Date.Local()
	m.CreatedAt = m.CreatedAt.Local()
	m.UpdatedAt = m.UpdatedAt.Local()
}
