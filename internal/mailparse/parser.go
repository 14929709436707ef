// Package mailparse reads RFC 5322 messages from disk into the structured
// form consumed by the importer.
package mailparse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

// ParseFile opens path and parses it as a single message.
func ParseFile(path string) (*Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	msg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return msg, nil
}

// Parse reads one message from r using go-message and extracts the subject,
// sender list, date, the first text/plain and text/html bodies, and the
// remaining leaves in the order they appear.
//
// Unknown charsets are tolerated and the raw bytes kept; a malformed header
// or multipart structure is an error.
func Parse(r io.Reader) (*Message, error) {
	br := bufio.NewReader(r)
	h, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	msg := &Message{}
	parseHeader(&mail.Header{Header: message.Header{Header: h}}, msg)

	leaves := 0
	if err := walk(message.Header{Header: h}, br, msg, &leaves); err != nil {
		return nil, err
	}
	return msg, nil
}

// walk descends into multipart bodies and hands every leaf to readPart.
// Multipart bodies carry no transfer encoding, so body is read as is.
func walk(h message.Header, body io.Reader, msg *Message, leaves *int) error {
	mediaType, params, _ := h.ContentType()
	if !strings.HasPrefix(mediaType, "multipart/") {
		i := *leaves
		*leaves++
		if err := readPart(h, body, msg); err != nil {
			return fmt.Errorf("reading part %d: %w", i, err)
		}
		return nil
	}

	mr := textproto.NewMultipartReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading part %d: %w", *leaves, err)
		}
		if err := walk(message.Header{Header: p.Header}, p, msg, leaves); err != nil {
			return err
		}
	}
}

// isInline mirrors the classification of mail.Reader: explicit inline
// disposition, or a text type without attachment disposition.
func isInline(h message.Header) bool {
	mediaType, _, _ := h.ContentType()
	disp, _, _ := h.ContentDisposition()
	return disp == "inline" || (disp != "attachment" && strings.HasPrefix(mediaType, "text/"))
}

// decodeBody undoes the transfer encoding of a leaf. Inline text is also
// converted to UTF-8; attachments keep the bytes the sender attached.
func decodeBody(h message.Header, body io.Reader, inline bool) ([]byte, error) {
	if !inline {
		mediaType, params, err := h.ContentType()
		if _, ok := params["charset"]; ok && err == nil {
			h = message.Header{Header: h.Header.Copy()}
			delete(params, "charset")
			h.SetContentType(mediaType, params)
		}
	}

	e, err := message.New(h, body)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, err
	}
	return io.ReadAll(e.Body)
}

// parseHeader fills the envelope fields of msg from h. Undecodable subject
// or date values degrade to the raw text and the zero time respectively.
func parseHeader(h *mail.Header, msg *Message) {
	subject, err := h.Subject()
	if err != nil {
		subject = h.Get("Subject")
	}
	msg.Subject = subject

	if date, err := h.Date(); err == nil {
		msg.Date = date
	}

	addrs, err := h.AddressList("From")
	if err != nil {
		raw, textErr := h.Text("From")
		if textErr != nil {
			raw = h.Get("From")
		}
		if raw = strings.TrimSpace(raw); raw != "" {
			msg.From = []Address{{Raw: raw}}
		}
		return
	}
	for _, a := range addrs {
		msg.From = append(msg.From, Address{Name: a.Name, Address: a.Address})
	}
}

// readPart consumes the body of one leaf and records it on msg either as a
// message body or as a leaf part.
func readPart(h message.Header, r io.Reader, msg *Message) error {
	inline := isInline(h)
	body, err := decodeBody(h, r, inline)
	if err != nil {
		return err
	}

	contentType, _, _ := h.ContentType()
	filename, _ := (&mail.AttachmentHeader{Header: h}).Filename()

	if inline {
		switch {
		case isMessageType(contentType):
			msg.Parts = append(msg.Parts, nestedPart(contentType, "", body))
		case contentType == "text/plain" && msg.TextBody == "":
			msg.TextBody = string(body)
		case contentType == "text/html" && msg.HTMLBody == "":
			msg.HTMLBody = string(body)
		case strings.HasPrefix(contentType, "text/"):
			// Additional inline text alternatives are not kept.
		default:
			msg.Parts = append(msg.Parts, Part{
				Kind:        PartInline,
				FileName:    filename,
				ContentType: contentType,
				Body:        body,
			})
		}
		return nil
	}

	if isMessageType(contentType) {
		msg.Parts = append(msg.Parts, nestedPart(contentType, filename, body))
		return nil
	}
	msg.Parts = append(msg.Parts, Part{
		Kind:        PartAttachment,
		FileName:    filename,
		ContentType: contentType,
		Body:        body,
	})
	return nil
}

// nestedPart builds a PartMessage leaf. The attached message is parsed on a
// best-effort basis; its wire form is kept either way.
func nestedPart(contentType, filename string, raw []byte) Part {
	p := Part{
		Kind:        PartMessage,
		FileName:    filename,
		ContentType: contentType,
		Body:        raw,
	}
	if nested, err := Parse(bytes.NewReader(raw)); err == nil {
		p.Nested = nested
	}
	return p
}

func isMessageType(contentType string) bool {
	return contentType == "message/rfc822" || contentType == "message/global"
}
