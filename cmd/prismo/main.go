package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/prismo/internal/config"
	"github.com/sadopc/prismo/internal/logging"
	"github.com/sadopc/prismo/internal/output"
	"github.com/sadopc/prismo/internal/schema"
	"github.com/sadopc/prismo/internal/suggest"
	"github.com/sadopc/prismo/internal/theme"
	"github.com/sadopc/prismo/internal/workspace"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	schemaFlag string
	configFlag string
	jsonOut    bool
	dryRun     bool
	verbose    bool

	cfg *config.Config
	log *zap.Logger
	out *output.Printer
	ws  *workspace.Workspace
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "prismo",
		Short: "Edit schema model blocks from the command line",
		Long: `prismo adds and removes models, fields and relations in a schema file
while leaving every untouched line exactly as it was.

Examples:
  prismo g model post title:string body:text author:ref
  prismo g field user bio:text posts:ref
  prismo relation 1toM user post --cascade
  prismo d field post author
  prismo list --json`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.unknownCommand(cmd, args[0])
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.schemaFlag, "schema", "s", "", "Schema file (default: config schema_path or "+workspace.DefaultSchemaPath+")")
	pf.StringVarP(&a.configFlag, "config", "c", "", "Config file path")
	pf.BoolVar(&a.jsonOut, "json", false, "Print a single JSON document instead of text")
	pf.BoolVarP(&a.dryRun, "dry-run", "n", false, "Print the edited document instead of writing it")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		a.generateCmd(),
		a.destroyCmd(),
		a.relationCmd(),
		a.unrelateCmd(),
		a.listCmd(),
		a.showCmd(),
		a.browseCmd(),
		a.historyCmd(),
		a.undoCmd(),
		a.auditCmd(),
		a.migrateNameCmd(),
		a.versionCmd(),
	)
	return rootCmd
}

// setup loads the config and builds the logger, printer and workspace.
func (a *app) setup() error {
	a.log = logging.Must(a.verbose)

	cfg, cfgErr := loadConfig(a.configFlag)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	a.cfg = cfg

	th := theme.Get(cfg.Theme)
	theme.Current = th
	a.out = output.New(a.stdout, a.stderr, th,
		output.WithJSON(a.jsonOut),
		output.WithColor(!a.jsonOut && isTerminal(a.stdout)),
	)
	if cfgErr != nil {
		a.log.Warn("config not loaded", zap.Error(cfgErr))
		a.out.Warn("could not load config, using defaults: %v", cfgErr)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	path := workspace.ResolvePath(a.schemaFlag, cfg.SchemaPath, cwd)
	a.ws = workspace.New(path,
		workspace.WithTypes(cfg.Types),
		workspace.WithFormatter(workspace.NewFormatter(cfg.Formatter)),
		workspace.WithLogger(a.log),
	)
	a.log.Debug("workspace ready", zap.String("schema", path))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && output.ColorEnabled(f)
}

// reportedError is an error whose message has already been printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

type errorBody struct {
	Kind       string   `json:"kind"`
	Message    string   `json:"message"`
	Model      string   `json:"model,omitempty"`
	Field      string   `json:"field,omitempty"`
	Names      []string `json:"names,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func newErrorBody(err error, suggestion string) errorBody {
	body := errorBody{Kind: "error", Message: err.Error(), Suggestion: suggestion}
	if ee, ok := schema.AsEditError(err); ok {
		body.Kind = string(ee.Kind)
		body.Model = ee.Model
		body.Field = ee.Field
		body.Names = ee.Names
	} else if errors.Is(err, workspace.ErrSchemaMissing) {
		body.Kind = "schema_missing"
	}
	return body
}

// fail prints err once, as text or as a JSON envelope, and returns it
// marked as reported.
func (a *app) fail(cmd *cobra.Command, err error, suggestion string) error {
	if a.out.JSON() {
		_ = a.out.Emit(output.Envelope{
			OK:      false,
			Command: commandName(cmd),
			Error:   newErrorBody(err, suggestion),
		})
	} else {
		a.out.Error("%v", err)
		if suggestion != "" {
			a.out.Info("did you mean %q?", suggestion)
		}
	}
	return &reportedError{err: err}
}

func (a *app) unknownCommand(cmd *cobra.Command, name string) error {
	var names []string
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			names = append(names, c.Name())
			names = append(names, c.Aliases...)
		}
	}
	hint, _ := suggest.DidYouMean(name, names)
	label := "command"
	if cmd.HasParent() {
		label = cmd.Name() + " target"
	}
	return a.fail(cmd, fmt.Errorf("unknown %s %q", label, name), hint)
}

// editHint suggests an existing model or field for a not-found error.
func editHint(doc *schema.Document, err error) string {
	ee, ok := schema.AsEditError(err)
	if !ok || doc == nil {
		return ""
	}
	var hint string
	switch ee.Kind {
	case schema.KindModelNotFound:
		hint, _ = suggest.DidYouMean(ee.Model, doc.ModelNames())
	case schema.KindFieldNotFound:
		if m, ok := doc.Model(ee.Model); ok && ee.Field != "" {
			hint, _ = suggest.DidYouMean(ee.Field, m.FieldNames())
		}
	}
	return hint
}

// commandName is the command path without the program name.
func commandName(cmd *cobra.Command) string {
	return strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.out.JSON() {
				return a.out.Emit(output.Envelope{
					OK:      true,
					Command: "version",
					Data:    map[string]string{"version": version, "commit": commit, "date": date},
				})
			}
			fmt.Fprintf(a.stdout, "prismo %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
