package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/prismo/internal/audit"
	"github.com/sadopc/prismo/internal/highlight"
	"github.com/sadopc/prismo/internal/output"
	"github.com/sadopc/prismo/internal/schema"
	"github.com/sadopc/prismo/internal/suggest"
	"github.com/sadopc/prismo/internal/workspace"
)

// edit is one document mutation requested on the command line.
type edit struct {
	op      workspace.Op
	targets []string
	summary func(names []string) string
	apply   func(*schema.Document) (*schema.Result, error)
}

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "g <model|field>",
		Aliases: []string{"generate"},
		Short:   "Generate a model or fields",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.unknownCommand(cmd, args[0])
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "model <name> [field:type...]",
		Short: "Add a model block",
		Example: `  prismo g model post title:string published:bool
  prismo g model comment body:text post:ref`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := schema.ParseFieldSpecs(args[1:])
			if err != nil {
				return a.fail(cmd, err, "")
			}
			return a.runEdit(cmd, edit{
				op:      workspace.OpAddModel,
				targets: []string{args[0]},
				summary: func(n []string) string { return "created model " + n[0] },
				apply: func(d *schema.Document) (*schema.Result, error) {
					return d.AddModel(args[0], specs)
				},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "field <model> <field:type>...",
		Short: "Add fields to a model",
		Example: `  prismo g field user bio:text age:int
  prismo g field post author:ref tags:ref`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := schema.ParseFieldSpecs(args[1:])
			if err != nil {
				return a.fail(cmd, err, "")
			}
			return a.runEdit(cmd, edit{
				op:      workspace.OpAddField,
				targets: []string{args[0]},
				apply: func(d *schema.Document) (*schema.Result, error) {
					return d.AddField(args[0], specs)
				},
			})
		},
	})

	return cmd
}

func (a *app) destroyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "d <model|field>",
		Aliases: []string{"destroy"},
		Short:   "Remove a model or a field",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.unknownCommand(cmd, args[0])
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "model <name>",
		Short: "Remove a model block that nothing references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, edit{
				op:      workspace.OpRemoveModel,
				targets: []string{args[0]},
				summary: func(n []string) string { return "removed model " + n[0] },
				apply: func(d *schema.Document) (*schema.Result, error) {
					return d.RemoveModel(args[0])
				},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "field <model> <field>",
		Short: "Remove a field, its foreign key and its back-reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, edit{
				op:      workspace.OpRemoveField,
				targets: []string{args[0]},
				apply: func(d *schema.Document) (*schema.Result, error) {
					return d.RemoveField(args[0], args[1])
				},
			})
		},
	})

	return cmd
}

func (a *app) relationCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "relation <1to1|1toM|Mto1|MtoM> <modelA> <modelB>",
		Short: "Link two models",
		Example: `  prismo relation 1toM user post
  prismo relation 1to1 user profile --cascade
  prismo relation MtoM post tag`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseRelationKind(args[0])
			if err != nil {
				hint, _ := suggest.DidYouMean(args[0], schema.RelationKindNames)
				return a.fail(cmd, err, hint)
			}
			return a.runEdit(cmd, edit{
				op:      workspace.OpRelation,
				targets: []string{args[1], args[2]},
				summary: func(n []string) string {
					return fmt.Sprintf("linked %s and %s (%s)", n[0], n[1], kind)
				},
				apply: func(d *schema.Document) (*schema.Result, error) {
					return d.CreateRelation(kind, args[1], args[2], cascade)
				},
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "Add onDelete: Cascade to the foreign-key side")
	return cmd
}

func (a *app) unrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrelate <modelA> <modelB>",
		Short: "Remove every relation field between two models",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, edit{
				op:      workspace.OpUnrelate,
				targets: []string{args[0], args[1]},
				apply: func(d *schema.Document) (*schema.Result, error) {
					return d.RemoveRelation(args[0], args[1])
				},
			})
		},
	}
}

// runEdit loads the schema, applies e and writes the result. After a
// successful write the journal and audit log are updated; their failures
// are logged and never undo the write.
func (a *app) runEdit(cmd *cobra.Command, e edit) error {
	ctx := cmd.Context()

	doc, err := a.ws.Load(ctx)
	if err != nil {
		a.audit(e, nil, err)
		return a.fail(cmd, err, "")
	}

	res, err := e.apply(doc)
	if err != nil {
		a.audit(e, nil, err)
		return a.fail(cmd, err, editHint(doc, err))
	}

	targets := canonicalNames(e.targets, res.Doc, doc)
	migration := workspace.SuggestMigration(e.op, targets...)

	if a.dryRun {
		a.audit(e, res, nil)
		return a.reportDryRun(cmd, res, migration)
	}

	if res.Changed {
		saved, err := a.ws.Save(ctx, res.Doc.Render())
		if err != nil {
			a.audit(e, res, err)
			return a.fail(cmd, err, "")
		}
		if saved.FormatErr != nil {
			res.Warnings = append(res.Warnings, "formatter failed: "+saved.FormatErr.Error())
		}
		a.journal(e.op, targets, doc.Text(), saved.Text, res.Warnings)
	}
	a.audit(e, res, nil)

	a.log.Debug("edit applied",
		zap.String("op", string(e.op)),
		zap.Strings("targets", targets),
		zap.Bool("changed", res.Changed),
		zap.Int("warnings", len(res.Warnings)),
	)
	return a.report(cmd, e, targets, res, migration)
}

// canonicalNames maps user-typed model names to their declared spelling,
// looking in the edited document first so that new models resolve.
func canonicalNames(names []string, docs ...*schema.Document) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = schema.NormalizeModelName(name)
		for _, d := range docs {
			if m, ok := d.Model(out[i]); ok {
				out[i] = m.Name
				break
			}
			if m, ok := d.Model(name); ok {
				out[i] = m.Name
				break
			}
		}
	}
	return out
}

func (a *app) report(cmd *cobra.Command, e edit, targets []string, res *schema.Result, migration string) error {
	if a.out.JSON() {
		env := output.Envelope{OK: true, Command: commandName(cmd), Data: res, Warnings: res.Warnings}
		if res.Changed {
			env.Migration = migration
		}
		return a.out.Emit(env)
	}

	for _, w := range res.Warnings {
		a.out.Warn("%s", w)
	}
	if !res.Changed {
		a.out.Info("nothing to change in %s", a.ws.Path())
		return nil
	}
	if e.summary != nil {
		a.out.Success("%s", e.summary(targets))
	}
	for _, r := range res.Added {
		a.out.Success("added %s", r)
	}
	for _, r := range res.Removed {
		a.out.Success("removed %s", r)
	}
	a.out.Title("Next step")
	a.out.Step("npx prisma migrate dev --name %s", migration)
	return nil
}

func (a *app) reportDryRun(cmd *cobra.Command, res *schema.Result, migration string) error {
	text := res.Doc.Render()
	if a.out.JSON() {
		return a.out.Emit(output.Envelope{
			OK:        true,
			Command:   commandName(cmd),
			Data:      dryRunData{Result: res, Text: text},
			Warnings:  res.Warnings,
			Migration: migration,
		})
	}

	for _, w := range res.Warnings {
		a.out.Warn("%s", w)
	}
	a.out.Info("dry run: %s was not written", a.ws.Path())
	if a.out.Colored() {
		text = highlight.New().Highlight(text, a.out.Theme())
	}
	a.out.Block(text)
	return nil
}

type dryRunData struct {
	*schema.Result
	Text string `json:"text"`
}

func (a *app) audit(e edit, res *schema.Result, err error) {
	if !a.cfg.Audit.Enabled {
		return
	}
	path, perr := a.cfg.AuditPath()
	if perr != nil {
		a.log.Warn("audit path unavailable", zap.Error(perr))
		return
	}
	l, lerr := audit.New(path, a.cfg.Audit.MaxSizeMB)
	if lerr != nil {
		a.log.Warn("audit log unavailable", zap.String("path", path), zap.Error(lerr))
		return
	}
	defer l.Close()

	entry := audit.Entry{
		Operation:  string(e.op),
		Target:     strings.Join(e.targets, " "),
		SchemaPath: a.ws.Path(),
		DryRun:     a.dryRun,
	}
	if res != nil {
		entry.Added = refStrings(res.Added)
		entry.Removed = refStrings(res.Removed)
		entry.Warnings = res.Warnings
	}
	if err != nil {
		entry.IsError = true
		entry.Error = err.Error()
	}
	l.Log(entry)
}

func refStrings(refs []schema.FieldRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}
