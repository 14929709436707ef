package testutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// EML describes a test message to render in RFC 5322 wire form.
type EML struct {
	Subject  string
	From     string
	Date     time.Time
	Text     string
	HTML     string
	Files    []EMLFile
	Attached []EML
}

// EMLFile is a base64-encoded attachment part.
type EMLFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Bytes renders the message. Multipart/mixed is used whenever the message
// has attachments or both bodies.
func (e EML) Bytes() []byte {
	return e.render(0)
}

func (e EML) render(depth int) []byte {
	var buf bytes.Buffer

	from := e.From
	if from == "" {
		from = "Alice <alice@example.com>"
	}
	date := e.Date
	if date.IsZero() {
		date = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: bob@example.com\r\n")
	if e.Subject != "" {
		fmt.Fprintf(&buf, "Subject: %s\r\n", e.Subject)
	}
	fmt.Fprintf(&buf, "Date: %s\r\n", date.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	multipart := len(e.Files) > 0 || len(e.Attached) > 0 || (e.Text != "" && e.HTML != "")
	if !multipart {
		if e.HTML != "" {
			buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
			buf.WriteString(e.HTML + "\r\n")
		} else {
			buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
			buf.WriteString(e.Text + "\r\n")
		}
		return buf.Bytes()
	}

	boundary := fmt.Sprintf("mailshelf-test-boundary-%d", depth)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	if e.Text != "" {
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, e.Text)
	}
	if e.HTML != "" {
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, e.HTML)
	}
	for _, f := range e.Files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", ct)
		if f.Name != "" {
			fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", f.Name)
		} else {
			buf.WriteString("Content-Disposition: attachment\r\n")
		}
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		buf.WriteString(wrap76(base64.StdEncoding.EncodeToString(f.Data)))
		buf.WriteString("\r\n")
	}
	for _, nested := range e.Attached {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: message/rfc822\r\n")
		buf.WriteString("Content-Disposition: attachment\r\n\r\n")
		buf.Write(nested.render(depth + 1))
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

// Write stores the message as name inside dir and returns the full path.
func (e EML) Write(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, e.Bytes())
}

// WriteFile writes raw content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func wrap76(s string) string {
	var b strings.Builder
	for len(s) > 76 {
		b.WriteString(s[:76])
		b.WriteString("\r\n")
		s = s[76:]
	}
	b.WriteString(s)
	return b.String()
}
