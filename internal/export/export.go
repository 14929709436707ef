// Package export writes stored attachment payloads to disk.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/nhle/mailshelf/internal/model"
)

// ErrNoData is returned for an attachment record loaded without its payload.
var ErrNoData = errors.New("attachment payload not loaded")

// ErrUnsafeName is returned for a stored file name that would leave the
// export directory or name a subdirectory of it.
var ErrUnsafeName = errors.New("unsafe attachment file name")

// Failure records one attachment that could not be written.
type Failure struct {
	FileName string
	Path     string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("writing %s: %v", f.FileName, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarizes a batch export.
type Report struct {
	Written  []string
	Failures []Failure
}

// Err joins the failures, or returns nil when every attachment was written.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Exporter writes attachments to a filesystem.
type Exporter struct {
	Fs afero.Fs
}

// New returns an Exporter on the OS filesystem.
func New() *Exporter {
	return &Exporter{Fs: afero.NewOsFs()}
}

// WriteOne writes att's bytes to path, replacing any existing file.
func (e *Exporter) WriteOne(att model.Attachment, path string) error {
	if att.Data == nil && att.Size > 0 {
		return fmt.Errorf("writing %s: %w", att.FileName, ErrNoData)
	}
	if err := afero.WriteFile(e.Fs, path, att.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteAll writes every attachment into dir using its stored file name
// verbatim. Attachments with the same name overwrite each other. A name that
// is not a plain file name is recorded as a failure, as is a failed write;
// the remaining attachments are still attempted.
func (e *Exporter) WriteAll(atts []model.Attachment, dir string) Report {
	var report Report

	if err := e.Fs.MkdirAll(dir, 0o755); err != nil {
		for _, a := range atts {
			report.Failures = append(report.Failures, Failure{FileName: a.FileName, Err: err})
		}
		return report
	}

	for _, a := range atts {
		path, err := join(dir, a.FileName)
		if err != nil {
			report.Failures = append(report.Failures, Failure{FileName: a.FileName, Err: err})
			continue
		}
		if err := e.WriteOne(a, path); err != nil {
			report.Failures = append(report.Failures, Failure{FileName: a.FileName, Path: path, Err: err})
			continue
		}
		report.Written = append(report.Written, path)
	}

	return report
}

// ResolvePath returns where WriteOne should put att for a user supplied
// destination: the stored file name inside dest when dest is an existing
// directory or empty, dest itself otherwise. The stored name must be a plain
// file name whenever it is used.
func (e *Exporter) ResolvePath(att model.Attachment, dest string) (string, error) {
	if dest == "" {
		return join(".", att.FileName)
	}
	if isDir, _ := afero.IsDir(e.Fs, dest); isDir {
		return join(dest, att.FileName)
	}
	return dest, nil
}

// join places name directly inside dir. Names carrying a path separator or
// naming the directory itself are rejected.
func join(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafeName)
	}
	path := filepath.Join(dir, name)
	if rel, err := filepath.Rel(dir, path); err != nil || rel != name {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafeName)
	}
	return path, nil
}
