package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/prismo/internal/history"
	"github.com/sadopc/prismo/internal/output"
	"github.com/sadopc/prismo/internal/workspace"
)

var errHistoryDisabled = errors.New("edit history is disabled in the config")

func (a *app) openHistory() (*history.History, error) {
	if !a.cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	path, err := a.cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// journal records an applied edit for history and undo. Failures are logged
// only; the schema file has already been written.
func (a *app) journal(op workspace.Op, targets []string, before, after string, warnings []string) {
	if !a.cfg.History.Enabled {
		return
	}
	h, err := a.openHistory()
	if err != nil {
		a.log.Warn("edit journal unavailable", zap.Error(err))
		return
	}
	defer h.Close()

	entry, err := h.Add(history.Entry{
		Operation:  string(op),
		Target:     strings.Join(targets, " "),
		SchemaPath: a.ws.Path(),
		Before:     before,
		After:      after,
		Warnings:   warnings,
	})
	if err != nil {
		a.log.Warn("journal write failed", zap.Error(err))
		return
	}
	if err := h.Prune(a.ws.Path(), a.cfg.History.Keep); err != nil {
		a.log.Warn("journal prune failed", zap.Error(err))
	}
	a.log.Debug("edit journaled", zap.String("id", entry.ID), zap.String("op", entry.Operation))
}

type historyView struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Target    string    `json:"target,omitempty"`
	Schema    string    `json:"schema"`
	Warnings  []string  `json:"warnings,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
}

func (a *app) historyCmd() *cobra.Command {
	var (
		limit  int
		all    bool
		search string
		clear  bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled edits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.openHistory()
			if err != nil {
				return a.fail(cmd, err, "")
			}
			defer h.Close()

			if clear {
				return a.clearHistory(cmd, h, all)
			}

			var entries []history.Entry
			switch {
			case search != "":
				entries, err = h.Search("%"+search+"%", limit)
			case all:
				entries, err = h.Recent("", limit)
			default:
				entries, err = h.Recent(a.ws.Path(), limit)
			}
			if err != nil {
				return a.fail(cmd, err, "")
			}

			if a.out.JSON() {
				views := make([]historyView, 0, len(entries))
				for _, e := range entries {
					views = append(views, historyView{
						ID: e.ID, Operation: e.Operation, Target: e.Target,
						Schema: e.SchemaPath, Warnings: e.Warnings, AppliedAt: e.AppliedAt,
					})
				}
				return a.out.Emit(output.Envelope{OK: true, Command: "history", Data: views})
			}

			if len(entries) == 0 {
				a.out.Info("no journaled edits")
				return nil
			}
			th := a.out.Theme()
			for _, e := range entries {
				line := a.out.Style(th.Muted, e.AppliedAt.Local().Format("2006-01-02 15:04:05")) + "  " + e.Summary()
				if all || search != "" {
					line += a.out.Style(th.Muted, "  "+e.SchemaPath)
				}
				a.out.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of entries")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include every schema file")
	cmd.Flags().StringVar(&search, "search", "", "Only entries whose operation or target contains this text")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the journaled edits of the schema file (all files with --all)")
	return cmd
}

func (a *app) clearHistory(cmd *cobra.Command, h *history.History, all bool) error {
	scope := a.ws.Path()
	if all {
		scope = ""
	}
	n, err := h.Clear(scope)
	if err != nil {
		return a.fail(cmd, err, "")
	}
	a.log.Debug("history cleared", zap.String("schema", scope), zap.Int64("entries", n))

	if a.out.JSON() {
		return a.out.Emit(output.Envelope{OK: true, Command: "history", Data: map[string]int64{"cleared": n}})
	}
	a.out.Success("cleared %d journaled edits", n)
	return nil
}

func (a *app) undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last journaled edit of the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.openHistory()
			if err != nil {
				return a.fail(cmd, err, "")
			}
			defer h.Close()

			last, err := h.Last(a.ws.Path())
			if err != nil {
				if errors.Is(err, history.ErrEmpty) {
					err = fmt.Errorf("nothing to undo for %s", a.ws.Path())
				}
				return a.fail(cmd, err, "")
			}

			current, err := a.ws.Read(ctx)
			if err != nil {
				return a.fail(cmd, err, "")
			}
			if current != last.After {
				return a.fail(cmd, fmt.Errorf("%s changed since %q; refusing to undo", a.ws.Path(), last.Summary()), "")
			}

			if a.dryRun {
				if a.out.JSON() {
					return a.out.Emit(output.Envelope{OK: true, Command: "undo", Data: map[string]string{"undone": last.Summary(), "text": last.Before}})
				}
				a.out.Info("dry run: would undo %s", last.Summary())
				a.out.Block(last.Before)
				return nil
			}

			if _, err := a.ws.Save(ctx, last.Before); err != nil {
				return a.fail(cmd, err, "")
			}
			if err := h.Delete(last.ID); err != nil {
				a.log.Warn("journal delete failed", zap.String("id", last.ID), zap.Error(err))
			}
			a.audit(edit{op: workspace.OpUndo, targets: []string{last.Summary()}}, nil, nil)

			if a.out.JSON() {
				return a.out.Emit(output.Envelope{OK: true, Command: "undo", Data: map[string]string{"undone": last.Summary()}})
			}
			a.out.Success("undid %s", last.Summary())
			return nil
		},
	}
}

func (a *app) migrateNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-name",
		Short: "Suggest a migration name for the last journaled edit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := workspace.TimestampMigration()
			if h, err := a.openHistory(); err == nil {
				if last, err := h.Last(a.ws.Path()); err == nil {
					name = workspace.SuggestMigration(workspace.Op(last.Operation), strings.Fields(last.Target)...)
				}
				h.Close()
			}

			if a.out.JSON() {
				return a.out.Emit(output.Envelope{OK: true, Command: "migrate-name", Migration: name})
			}
			fmt.Fprintln(a.stdout, name)
			return nil
		},
	}
}
