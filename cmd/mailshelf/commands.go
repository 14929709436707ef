package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nhle/mailshelf/internal/app"
	"github.com/nhle/mailshelf/internal/export"
	"github.com/nhle/mailshelf/internal/importer"
	"github.com/nhle/mailshelf/internal/model"
	"github.com/nhle/mailshelf/internal/prompt"
	"github.com/nhle/mailshelf/internal/query"
	"github.com/nhle/mailshelf/internal/render"
)

func newBrowseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, e)
		},
	}
}

func runBrowse(cmd *cobra.Command, e *env) error {
	if err := e.load(true); err != nil {
		return err
	}
	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer e.closeStore(s)

	m, err := app.New(s, e.cfg, e.logger)
	if err != nil {
		return err
	}

	e.logger.Info("starting terminal UI")
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

func newImportCmd(e *env) *cobra.Command {
	var onConflict string

	cmd := &cobra.Command{
		Use:   "import <file.eml|dir|glob>...",
		Short: "Import .eml files as one atomic batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.load(false); err != nil {
				return err
			}
			policy := e.cfg.Import.OnConflict
			if cmd.Flags().Changed("on-conflict") {
				policy = onConflict
			}
			state, err := importer.StateFromPolicy(policy)
			if err != nil {
				return err
			}

			paths, err := importer.ExpandPaths(afero.NewOsFs(), args)
			if err != nil {
				return err
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			var decider importer.Decider = importer.FixedDecider{Answer: importer.AnswerSkip}
			if interactive() {
				decider = prompt.Terminal{}
			} else if state == importer.StateUndecided {
				e.logger.Info("stdin is not a terminal; existing subjects are skipped")
			}

			out := cmd.OutOrStdout()
			p := importer.NewPipeline(s, decider, state, e.logger)
			p.Progress = func(evt importer.ImportEvent) {
				fmt.Fprintf(out, "[%d/%d] %-11s %s\n", evt.Index+1, evt.Total, evt.Outcome, evt.Path)
			}

			sum, err := p.Import(cmd.Context(), paths)
			for _, fe := range sum.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed: %v\n", fe)
			}
			if errors.Is(err, importer.ErrCommitFailed) {
				fmt.Fprintln(out, sum.String()+" (not committed)")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, sum.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&onConflict, "on-conflict", model.OnConflictAsk,
		"what to do when a subject already exists: ask, overwrite or skip")
	return cmd
}

func newSearchCmd(e *env) *cobra.Command {
	var (
		body   bool
		sortBy string
		desc   bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "List stored emails whose subject (or body) contains the query",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.load(false); err != nil {
				return err
			}
			scope := query.ScopeSubject
			if body {
				scope = query.ScopeSubjectAndBody
			}

			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			q := strings.Join(args, " ")
			msgs, err := query.Search(cmd.Context(), s, scope, q)
			if err != nil {
				return err
			}

			if sortBy != "" {
				field, err := query.ParseField(sortBy)
				if err != nil {
					return err
				}
				dir := query.Ascending
				if desc {
					dir = query.Descending
				}
				msgs = query.Sort(msgs, field, dir)
			}

			if err := render.Table(cmd.OutOrStdout(), msgs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), query.Describe(scope, q, len(msgs)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&body, "body", false, "also search the text and HTML bodies")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by subject, sender, date, attachments or size")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an email's headers, attachments and body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.load(false); err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			msg, err := s.GetMessageByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return render.Message(cmd.OutOrStdout(), *msg)
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	var (
		dir          string
		attachmentID int64
		out          string
	)

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write attachments to disk",
		Long: "Write every attachment of email <id> into --dir, or a single\n" +
			"attachment chosen with --attachment to --out.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			single := cmd.Flags().Changed("attachment")
			if single == (len(args) == 1) {
				return errors.New("give either an email id or --attachment")
			}
			if err := e.load(false); err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			ex := export.New()
			w := cmd.OutOrStdout()

			if single {
				att, err := s.GetAttachment(cmd.Context(), attachmentID)
				if err != nil {
					return err
				}
				path, err := ex.ResolvePath(*att, out)
				if err != nil {
					return err
				}
				if err := ex.WriteOne(*att, path); err != nil {
					return err
				}
				fmt.Fprintln(w, path)
				return nil
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := s.GetMessageByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dir") {
				dir = e.cfg.Export.Dir
			}

			report := ex.WriteAll(msg.Attachments, dir)
			for _, p := range report.Written {
				fmt.Fprintln(w, p)
			}
			e.logger.Info("exported attachments",
				"message_id", id, "dir", dir,
				"written", len(report.Written), "failed", len(report.Failures))
			return report.Err()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory for all attachments of the email (default export.dir)")
	cmd.Flags().Int64Var(&attachmentID, "attachment", 0, "export only this attachment id")
	cmd.Flags().StringVar(&out, "out", ".", "file or directory for --attachment")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an email and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.load(false); err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			msg, err := s.GetMessageByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			if !yes {
				if !interactive() {
					return errors.New("refusing to delete without --yes when stdin is not a terminal")
				}
				ok, err := prompt.Terminal{}.ConfirmDelete(cmd.Context(), msg.Subject)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := s.DeleteMessage(cmd.Context(), id); err != nil {
				return err
			}
			e.logger.Info("deleted message", "id", id, "subject", msg.Subject)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %q\n", id, msg.Subject)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newHistoryCmd(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.load(false); err != nil {
				return err
			}
			s, err := e.openStore()
			if err != nil {
				return err
			}
			defer e.closeStore(s)

			runs, err := s.GetImportRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render.Runs(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(e.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", e.configPath)
			}
			if err := e.load(false); err != nil {
				return err
			}
			if err := model.SaveConfig(e.configPath, e.cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", e.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
