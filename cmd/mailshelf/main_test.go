package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/testutil"
)

// run executes the CLI against the database in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&env{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--db", filepath.Join(dir, "data", "mail.db"),
		"--log-level", "error",
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestCLIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mailDir := filepath.Join(dir, "mail")
	require.NoError(t, os.MkdirAll(mailDir, 0o755))

	testutil.EML{
		Subject: "Invoice March",
		Text:    "Please pay.",
		Files: []testutil.EMLFile{
			{Name: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	}.Write(t, mailDir, "a.eml")
	testutil.EML{Subject: "Lunch", From: "Bob <bob@example.com>", Text: "Noon?"}.
		Write(t, mailDir, "b.eml")

	out, err := run(t, dir, "import", "--on-conflict", "overwrite", mailDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported: 2, Overwritten: 0, Skipped: 0")

	t.Run("reimport overwrites", func(t *testing.T) {
		out, err := run(t, dir, "import", "--on-conflict", "overwrite", filepath.Join(mailDir, "b.eml"))
		require.NoError(t, err)
		assert.Contains(t, out, "Imported: 0, Overwritten: 1, Skipped: 0")
	})

	t.Run("search", func(t *testing.T) {
		out, err := run(t, dir, "search", "invoice")
		require.NoError(t, err)
		assert.Contains(t, out, "Invoice March")
		assert.NotContains(t, out, "Lunch")
		assert.Contains(t, out, "Results: 1 | Filter: Subject contains 'invoice'")
	})

	t.Run("show", func(t *testing.T) {
		out, err := run(t, dir, "show", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Invoice March")
		assert.Contains(t, out, "invoice.pdf")
		assert.Contains(t, out, "Please pay.")
	})

	t.Run("export", func(t *testing.T) {
		outDir := filepath.Join(dir, "out")
		_, err := run(t, dir, "export", "1", "--dir", outDir)
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(outDir, "invoice.pdf"))
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), data)
	})

	t.Run("history", func(t *testing.T) {
		out, err := run(t, dir, "history")
		require.NoError(t, err)
		assert.Contains(t, out, "CREATED")
	})

	t.Run("delete", func(t *testing.T) {
		_, err := run(t, dir, "delete", "2", "--yes")
		require.NoError(t, err)

		_, err = run(t, dir, "show", "2")
		assert.Error(t, err)
	})
}

func TestExportNeedsExactlyOneTarget(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "export")
	assert.Error(t, err)

	_, err = run(t, dir, "export", "1", "--attachment", "3")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
