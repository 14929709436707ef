package mailparse_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/mailparse"
	"github.com/nhle/mailshelf/internal/testutil"
)

func TestParseSimpleText(t *testing.T) {
	raw := testutil.EML{
		Subject: "Hello",
		From:    "Alice <alice@example.com>, bob@example.com",
		Date:    time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		Text:    "hi there",
	}.Bytes()

	msg, err := mailparse.Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Hello", msg.Subject)
	require.Len(t, msg.From, 2)
	assert.Equal(t, "Alice", msg.From[0].Name)
	assert.Equal(t, "alice@example.com", msg.From[0].Address)
	assert.Equal(t, "", msg.From[1].Name)
	assert.Equal(t, "bob@example.com", msg.From[1].Address)
	assert.True(t, msg.Date.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)))
	assert.Equal(t, "hi there\r\n", msg.TextBody)
	assert.Empty(t, msg.HTMLBody)
	assert.Empty(t, msg.Parts)
}

func TestParseMultipart(t *testing.T) {
	pdf := bytes.Repeat([]byte{0xAB}, 1024)
	raw := testutil.EML{
		Subject: "Report",
		Text:    "plain",
		HTML:    "<p>rich</p>",
		Files: []testutil.EMLFile{
			{Name: "a.pdf", ContentType: "application/pdf", Data: pdf},
			{ContentType: "image/png", Data: []byte("png")},
		},
		Attached: []testutil.EML{{Subject: "Forwarded", Text: "inner"}},
	}.Bytes()

	msg, err := mailparse.Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "plain", strings.TrimSpace(msg.TextBody))
	assert.Equal(t, "<p>rich</p>", strings.TrimSpace(msg.HTMLBody))
	require.Len(t, msg.Parts, 3)

	assert.Equal(t, mailparse.PartAttachment, msg.Parts[0].Kind)
	assert.Equal(t, "a.pdf", msg.Parts[0].FileName)
	assert.Equal(t, "application/pdf", msg.Parts[0].ContentType)
	assert.Equal(t, pdf, msg.Parts[0].Body, "payload is transfer-decoded")

	assert.Equal(t, mailparse.PartAttachment, msg.Parts[1].Kind)
	assert.Empty(t, msg.Parts[1].FileName)

	nested := msg.Parts[2]
	assert.Equal(t, mailparse.PartMessage, nested.Kind)
	require.NotNil(t, nested.Nested)
	assert.Equal(t, "Forwarded", nested.Nested.Subject)
	assert.Contains(t, string(nested.Body), "Subject: Forwarded")
}

func TestParseInlineImageIsInline(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: Inline\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"b\"\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<img src=\"cid:logo\">\r\n" +
		"--b\r\n" +
		"Content-Type: image/png\r\n" +
		"Content-Disposition: inline; filename=\"logo.png\"\r\n" +
		"\r\n" +
		"PNG\r\n" +
		"--b--\r\n"

	msg, err := mailparse.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, mailparse.PartInline, msg.Parts[0].Kind)
	assert.Equal(t, "logo.png", msg.Parts[0].FileName)
}

func TestParseHeaderFallbacks(t *testing.T) {
	raw := "From: not an address list\r\n" +
		"Subject: =?UTF-8?B?SMOpbGxv?=\r\n" +
		"Date: sometime last week\r\n" +
		"\r\n" +
		"body\r\n"

	msg, err := mailparse.Parse(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Héllo", msg.Subject)
	assert.True(t, msg.Date.IsZero())
	require.Len(t, msg.From, 1)
	assert.Equal(t, "not an address list", msg.From[0].Raw)
	assert.Equal(t, "body\r\n", msg.TextBody)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty input", raw: ""},
		{name: "not a header", raw: "this is not an email\r\n\r\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mailparse.Parse(strings.NewReader(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.EML{Subject: "On disk", Text: "x"}.Write(t, dir, "m.eml")

	msg, err := mailparse.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "On disk", msg.Subject)

	_, err = mailparse.ParseFile(dir + "/missing.eml")
	assert.Error(t, err)
}

func TestParseTextAttachmentKeepsCharsetBytes(t *testing.T) {
	latin1 := []byte{0xe8, 0xe9, 0xea, 0x0a}
	raw := testutil.EML{
		Subject: "Latin-1 notes",
		Text:    "see attached",
		Files: []testutil.EMLFile{{
			Name:        "notes.txt",
			ContentType: "text/plain; charset=iso-8859-1",
			Data:        latin1,
		}},
	}.Bytes()

	msg, err := mailparse.Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "see attached", strings.TrimSpace(msg.TextBody))
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, mailparse.PartAttachment, msg.Parts[0].Kind)
	assert.Equal(t, "notes.txt", msg.Parts[0].FileName)
	assert.Equal(t, latin1, msg.Parts[0].Body, "attachment bytes are not re-encoded")
}

func TestParseInlineTextIsConvertedToUTF8(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: Latin-1 body\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"6OnqCg==\r\n"

	msg, err := mailparse.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "èéê\n", msg.TextBody)
}
