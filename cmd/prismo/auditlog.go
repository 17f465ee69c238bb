package main

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/prismo/internal/audit"
	"github.com/sadopc/prismo/internal/output"
)

func (a *app) auditCmd() *cobra.Command {
	var (
		limit int
		errs  bool
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show audit log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.cfg.AuditPath()
			if err != nil {
				return a.fail(cmd, err, "")
			}
			entries, err := audit.ReadAll(path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return a.fail(cmd, err, "")
			}
			entries = filterAudit(entries, a.ws.Path(), all, errs, limit)

			if a.out.JSON() {
				if entries == nil {
					entries = []audit.Entry{}
				}
				return a.out.Emit(output.Envelope{OK: true, Command: "audit", Data: entries})
			}

			if len(entries) == 0 {
				a.out.Info("no audit entries in %s", path)
				return nil
			}
			th := a.out.Theme()
			for _, e := range entries {
				line := a.out.Style(th.Muted, e.Timestamp.Local().Format("2006-01-02 15:04:05")) + "  " + e.Operation
				if e.Target != "" {
					line += " " + e.Target
				}
				if e.DryRun {
					line += a.out.Style(th.Muted, " (dry run)")
				}
				if e.IsError {
					line += "  " + a.out.Style(th.Error, e.Error)
				} else if changes := auditChanges(e); changes != "" {
					line += "  " + changes
				}
				a.out.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of entries")
	cmd.Flags().BoolVar(&errs, "errors", false, "Only rejected edits")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include every schema file")
	return cmd
}

// filterAudit returns matching entries newest first, at most limit of them.
func filterAudit(entries []audit.Entry, schemaPath string, all, errorsOnly bool, limit int) []audit.Entry {
	var out []audit.Entry
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !all && e.SchemaPath != schemaPath {
			continue
		}
		if errorsOnly && !e.IsError {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func auditChanges(e audit.Entry) string {
	var parts []string
	for _, f := range e.Added {
		parts = append(parts, "+"+f)
	}
	for _, f := range e.Removed {
		parts = append(parts, "-"+f)
	}
	return strings.Join(parts, " ")
}
