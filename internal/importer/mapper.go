package importer

import (
	"strings"

	"github.com/nhle/mailshelf/internal/mailparse"
	"github.com/nhle/mailshelf/internal/model"
)

const (
	// fallbackFileName names payload parts that declare no file name.
	fallbackFileName = "attachment"

	// nestedSubject stands in for an attached message without a subject.
	nestedSubject = "attached-message"

	nestedContentType = "message/rfc822"
)

// MapMessage converts a parsed message into a candidate record. It does no
// I/O: every part body is already decoded in memory.
func MapMessage(msg *mailparse.Message) model.Message {
	out := model.Message{
		Subject:  normalizeSubject(msg.Subject),
		Sender:   joinSenders(msg.From),
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	}
	if !msg.Date.IsZero() {
		out.Date = msg.Date.Local()
	}

	for _, part := range msg.Parts {
		if att, ok := extractAttachment(part); ok {
			att.Position = len(out.Attachments)
			out.Attachments = append(out.Attachments, att)
		}
	}

	return out
}

// normalizeSubject applies the sentinel to a missing subject, then trims.
func normalizeSubject(subject string) string {
	if subject == "" {
		subject = model.NoSubject
	}
	return strings.TrimSpace(subject)
}

// joinSenders renders the From list the way it is stored: each entry's
// display name, else its address, else its raw text, joined by commas.
func joinSenders(addrs []mailparse.Address) string {
	names := make([]string, 0, len(addrs))
	for _, a := range addrs {
		switch {
		case a.Name != "":
			names = append(names, a.Name)
		case a.Address != "":
			names = append(names, a.Address)
		default:
			names = append(names, a.Raw)
		}
	}
	return strings.Join(names, ",")
}

// extractAttachment normalizes one leaf part. The second return value is
// false for part kinds that are not stored.
func extractAttachment(part mailparse.Part) (model.Attachment, bool) {
	switch part.Kind {
	case mailparse.PartAttachment:
		name := part.FileName
		if name == "" {
			name = fallbackFileName
		}
		return newAttachment(name, part.ContentType, part.Body), true

	case mailparse.PartMessage:
		subject := ""
		if part.Nested != nil {
			subject = strings.TrimSpace(part.Nested.Subject)
		}
		if subject == "" {
			subject = nestedSubject
		}
		name := strings.NewReplacer("/", "_", `\`, "_").Replace(subject)
		return newAttachment(name+".eml", nestedContentType, part.Body), true

	default:
		return model.Attachment{}, false
	}
}

func newAttachment(name, contentType string, data []byte) model.Attachment {
	return model.Attachment{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
}
