package importer_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/importer"
)

func TestExpandPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"/mail/b.eml", "/mail/a.EML", "/mail/notes.txt", "/mail/sub/c.eml",
		"/other/x.eml", "/other/y.eml",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0o644))
	}

	got, err := importer.ExpandPaths(fs, []string{
		"/single.eml",
		"/mail",
		"/other/*.eml",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/single.eml",
		"/mail/a.EML",
		"/mail/b.eml",
		"/other/x.eml",
		"/other/y.eml",
	}, got)
}
