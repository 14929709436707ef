package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/model"
)

func TestBody(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
		want string
	}{
		{name: "text wins", msg: model.Message{TextBody: "plain\r\n", HTMLBody: "<b>rich</b>"}, want: "plain"},
		{name: "html fallback", msg: model.Message{TextBody: " \r\n", HTMLBody: "<p>Hello <b>there</b></p>"}, want: "Hello there"},
		{name: "nothing", msg: model.Message{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Body(tt.msg))
		})
	}
}

func TestDate(t *testing.T) {
	assert.Equal(t, "-", Date(time.Time{}))
	d := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	assert.Equal(t, "Fri, 01 Mar 2024 10:05", Date(d))
}

func TestMessage(t *testing.T) {
	var buf bytes.Buffer
	err := Message(&buf, model.Message{
		ID:       7,
		Subject:  "Quarterly",
		Sender:   "Alice",
		TextBody: "numbers inside",
		Attachments: []model.Attachment{
			{ID: 3, FileName: "q.pdf", ContentType: "application/pdf", Size: 2048},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Subject:  Quarterly")
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "q.pdf")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "numbers inside")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []model.Message{
		{ID: 1, Subject: "a", Sender: "x", AttachmentCount: 2, AttachmentBytes: 1000},
		{ID: 2, Subject: "b", Sender: "y"},
	}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "2 (1.0 kB)")
	assert.Contains(t, string(lines[2]), "-")
}
