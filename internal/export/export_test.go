package export_test

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshelf/internal/export"
	"github.com/nhle/mailshelf/internal/model"
)

func att(name, data string) model.Attachment {
	return model.Attachment{FileName: name, Data: []byte(data), Size: int64(len(data))}
}

func TestWriteOne(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	e := &export.Exporter{Fs: fs}

	require.NoError(t, e.WriteOne(att("a.pdf", "pdf bytes"), "/out/renamed.pdf"))

	got, err := afero.ReadFile(fs, "/out/renamed.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(got))
}

func TestWriteOneWithoutPayload(t *testing.T) {
	e := &export.Exporter{Fs: afero.NewMemMapFs()}
	err := e.WriteOne(model.Attachment{FileName: "x", Size: 10}, "/x")
	assert.ErrorIs(t, err, export.ErrNoData)
}

func TestWriteAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := &export.Exporter{Fs: fs}

	report := e.WriteAll([]model.Attachment{
		att("a.txt", "first"),
		att("b.txt", "second"),
		att("a.txt", "third"),
	}, "/dest")

	assert.Empty(t, report.Failures)
	assert.NoError(t, report.Err())
	assert.Len(t, report.Written, 3)

	a, err := afero.ReadFile(fs, "/dest/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "third", string(a), "same names are not renamed")

	b, err := afero.ReadFile(fs, "/dest/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
}

// failingFs rejects writes to one file name.
type failingFs struct {
	afero.Fs
	reject string
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.reject {
		return nil, errors.New("permission denied")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestWriteAllContinuesAfterFailure(t *testing.T) {
	mem := afero.NewMemMapFs()
	e := &export.Exporter{Fs: failingFs{Fs: mem, reject: "/dest/bad.bin"}}

	report := e.WriteAll([]model.Attachment{
		att("good1.bin", "1"),
		att("bad.bin", "2"),
		att("good2.bin", "3"),
	}, "/dest")

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad.bin", report.Failures[0].FileName)
	assert.Error(t, report.Err())
	assert.Equal(t, []string{"/dest/good1.bin", "/dest/good2.bin"}, report.Written)

	exists, err := afero.Exists(mem, "/dest/good2.bin")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWriteAllUnwritableDir(t *testing.T) {
	e := &export.Exporter{Fs: afero.NewReadOnlyFs(afero.NewMemMapFs())}

	report := e.WriteAll([]model.Attachment{att("a", "1"), att("b", "2")}, "/dest")
	assert.Len(t, report.Failures, 2)
	assert.Empty(t, report.Written)
}

func TestResolvePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/downloads", 0o755))
	e := &export.Exporter{Fs: fs}
	a := att("report.pdf", "x")

	tests := []struct {
		dest string
		want string
	}{
		{dest: "", want: "report.pdf"},
		{dest: "/downloads", want: "/downloads/report.pdf"},
		{dest: "/tmp/other.pdf", want: "/tmp/other.pdf"},
	}
	for _, tt := range tests {
		got, err := e.ResolvePath(a, tt.dest)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestResolvePathRejectsUnsafeName(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/downloads", 0o755))
	e := &export.Exporter{Fs: fs}

	_, err := e.ResolvePath(att("../../etc/passwd", "x"), "/downloads")
	assert.ErrorIs(t, err, export.ErrUnsafeName)

	_, err = e.ResolvePath(att("../up.txt", "x"), "")
	assert.ErrorIs(t, err, export.ErrUnsafeName)

	got, err := e.ResolvePath(att("../../etc/passwd", "x"), "/tmp/chosen.txt")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/chosen.txt", got, "an explicit file destination ignores the stored name")
}

func TestWriteAllStaysInsideDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := &export.Exporter{Fs: fs}

	report := e.WriteAll([]model.Attachment{
		att("../../home/user/.bashrc", "evil"),
		att("Re: a/b.eml", "nested"),
		att(`..\win.ini`, "evil"),
		att("..", "evil"),
		att("ok.txt", "fine"),
	}, "/out/dir")

	assert.Equal(t, []string{"/out/dir/ok.txt"}, report.Written)
	require.Len(t, report.Failures, 4)
	for _, f := range report.Failures {
		assert.ErrorIs(t, f, export.ErrUnsafeName)
		assert.Empty(t, f.Path)
	}

	for _, path := range []string{"/home/user/.bashrc", "/out/dir/Re: a/b.eml", "/out/win.ini"} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}
}
