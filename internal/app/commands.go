package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailshelf/internal/export"
	"github.com/nhle/mailshelf/internal/importer"
	"github.com/nhle/mailshelf/internal/ui/conflict"
	"github.com/nhle/mailshelf/internal/ui/detail"
)

// exportDoneMsg is sent after the attachments of a message were written.
type exportDoneMsg struct {
	subject string
	dir     string
	report  export.Report
	err     error
}

// loadDetail returns a command that loads a message and its attachments.
func (m Model) loadDetail(id int64) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		msg, err := s.GetMessageByID(context.Background(), id)
		return detail.DetailLoadedMsg{Message: msg, Err: err}
	}
}

// exportMessage returns a command that writes every attachment of message
// id into dir.
func (m Model) exportMessage(id int64, dir string) tea.Cmd {
	s, ex, logger := m.store, m.exporter, m.logger
	dir = expandHome(dir)
	return func() tea.Msg {
		msg, err := s.GetMessageByID(context.Background(), id)
		if err != nil {
			return exportDoneMsg{dir: dir, err: err}
		}
		report := ex.WriteAll(msg.Attachments, dir)
		logger.Info("exported attachments",
			"message_id", id, "dir", dir,
			"written", len(report.Written), "failed", len(report.Failures))
		return exportDoneMsg{subject: msg.Subject, dir: dir, report: report}
	}
}

// startImport expands args into files and runs the import on the bridge.
func (m Model) startImport(args []string) tea.Cmd {
	for i, a := range args {
		args[i] = expandHome(a)
	}
	paths, err := importer.ExpandPaths(m.fs, args)
	if err != nil {
		return statusErr(err)
	}
	if len(paths) == 0 {
		return statusErr(fmt.Errorf("no .eml files in %s", strings.Join(args, " ")))
	}

	s, policy, logger := m.store, m.policy, m.logger
	cmd := m.bridge.Start(func(
		ctx context.Context,
		d importer.Decider,
		progress func(importer.ImportEvent),
	) (importer.Summary, error) {
		p := importer.NewPipeline(s, d, policy, logger)
		p.Progress = progress
		return p.Import(ctx, paths)
	})
	if cmd == nil {
		return statusErr(errImportRunning)
	}
	return cmd
}

// reportImport formats the end of an import for the status bar.
func reportImport(msg conflict.DoneMsg) (string, bool) {
	if msg.Err != nil {
		return fmt.Sprintf("Import failed: %v", msg.Err), true
	}
	text := msg.Summary.String()
	return text, msg.Summary.Failed > 0
}

func statusErr(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: err.Error(), isErr: true} }
}

// statusMsg carries app-level feedback for the status bar.
type statusMsg struct {
	text  string
	isErr bool
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
