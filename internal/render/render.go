// Package render formats stored messages as plain text for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k3a/html2text"

	"github.com/nhle/mailshelf/internal/model"
)

// Date formats a message timestamp, or "-" for an unknown date.
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Mon, 02 Jan 2006 15:04")
}

// Body returns the text body, or the HTML body converted to text when the
// message has no text part.
func Body(msg model.Message) string {
	if strings.TrimSpace(msg.TextBody) != "" {
		return strings.TrimRight(msg.TextBody, "\r\n")
	}
	if msg.HTMLBody != "" {
		return strings.TrimSpace(html2text.HTML2TextWithOptions(msg.HTMLBody, html2text.WithUnixLineBreaks()))
	}
	return ""
}

// Message writes headers, attachment list and body of msg to w.
func Message(w io.Writer, msg model.Message) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", msg.ID)
	fmt.Fprintf(tw, "Subject:\t%s\n", msg.Subject)
	fmt.Fprintf(tw, "From:\t%s\n", msg.Sender)
	fmt.Fprintf(tw, "Date:\t%s\n", Date(msg.Date))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(msg.Attachments) > 0 {
		fmt.Fprintf(w, "\nAttachments:\n")
		if err := Attachments(w, msg.Attachments); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n", Body(msg))
	return err
}

// Attachments writes one line per attachment: id, name, type and size.
func Attachments(w io.Writer, atts []model.Attachment) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range atts {
		fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\n", a.ID, a.FileName, a.ContentType, humanize.Bytes(uint64(a.Size)))
	}
	return tw.Flush()
}

// Table writes a listing of msgs, one row per message.
func Table(w io.Writer, msgs []model.Message) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tFROM\tSUBJECT\tATTACHMENTS")
	for _, m := range msgs {
		atts := "-"
		if n := m.NumAttachments(); n > 0 {
			atts = fmt.Sprintf("%d (%s)", n, humanize.Bytes(uint64(m.TotalAttachmentBytes())))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", m.ID, Date(m.Date), m.Sender, m.Subject, atts)
	}
	return tw.Flush()
}

// Runs writes the import history.
func Runs(w io.Writer, runs []model.ImportRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tCREATED\tOVERWRITTEN\tSKIPPED\tFAILED\tID")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s (%s)\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(r.StartedAt),
			r.Created, r.Overwritten, r.Skipped, r.Failed, r.ID)
	}
	return tw.Flush()
}
