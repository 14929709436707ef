package model

import "time"

// NoSubject is stored when an imported message carries no subject.
const NoSubject = "(no subject)"

// Message is a single imported email.
type Message struct {
	ID        int64     `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	Sender    string    `json:"sender" db:"sender"`
	Date      time.Time `json:"date" db:"date"`
	HTMLBody  string    `json:"html_body,omitempty" db:"html_body"`
	TextBody  string    `json:"text_body,omitempty" db:"text_body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Attachments is populated by GetMessageByID and by the importer.
	// Order matches the order the parts appeared in the source message.
	Attachments []Attachment `json:"attachments,omitempty" db:"-"`

	// AttachmentCount and AttachmentBytes are populated by list queries,
	// which do not load attachment payloads.
	AttachmentCount int   `json:"attachment_count" db:"attachment_count"`
	AttachmentBytes int64 `json:"attachment_bytes" db:"attachment_bytes"`
}

// Attachment is a binary payload owned by exactly one message.
// Its lifecycle is bound to the parent message (CASCADE delete).
type Attachment struct {
	ID          int64  `json:"id" db:"id"`
	MessageID   int64  `json:"message_id" db:"message_id"`
	Position    int    `json:"position" db:"position"`
	FileName    string `json:"file_name" db:"file_name"`
	ContentType string `json:"content_type" db:"content_type"`
	Size        int64  `json:"size" db:"size"`
	Data        []byte `json:"-" db:"data"`
}

// TotalAttachmentBytes returns the summed size of loaded attachments, falling
// back to AttachmentBytes when the list was loaded without payloads.
func (m Message) TotalAttachmentBytes() int64 {
	if len(m.Attachments) == 0 {
		return m.AttachmentBytes
	}
	var total int64
	for _, a := range m.Attachments {
		total += a.Size
	}
	return total
}

// NumAttachments returns the number of attachments, whether loaded or counted.
func (m Message) NumAttachments() int {
	if len(m.Attachments) > 0 {
		return len(m.Attachments)
	}
	return m.AttachmentCount
}
