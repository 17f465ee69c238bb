// Package workspace reads and writes the schema file an edit applies to.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/sadopc/prismo/internal/schema"
)

// DefaultSchemaPath is used when neither a flag nor the config names a file.
const DefaultSchemaPath = "prisma/schema.prisma"

// ErrSchemaMissing is returned by Load when the schema file does not exist.
var ErrSchemaMissing = errors.New("schema file not found")

// ResolvePath picks the schema file: flag first, then the configured path,
// then DefaultSchemaPath. Relative paths are joined to cwd.
func ResolvePath(flag, configured, cwd string) string {
	p := flag
	if p == "" {
		p = configured
	}
	if p == "" {
		p = DefaultSchemaPath
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p)
}

// Workspace is one schema file on disk.
type Workspace struct {
	path      string
	types     map[string]string
	formatter Formatter
	log       *zap.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithTypes sets type-table overrides applied when the file is parsed.
func WithTypes(types map[string]string) Option {
	return func(w *Workspace) { w.types = types }
}

// WithFormatter sets the formatter run after each write.
func WithFormatter(f Formatter) Option {
	return func(w *Workspace) {
		if f != nil {
			w.formatter = f
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.log = l
		}
	}
}

// New returns a Workspace for the schema file at path.
func New(path string, opts ...Option) *Workspace {
	w := &Workspace{
		path:      path,
		formatter: NopFormatter{},
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Path returns the schema file path.
func (w *Workspace) Path() string { return w.path }

// Read returns the raw file text.
func (w *Workspace) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("workspace: read %s: %w", w.path, ErrSchemaMissing)
		}
		return "", fmt.Errorf("workspace: read %s: %w", w.path, err)
	}
	return string(data), nil
}

// Load reads and parses the schema file.
func (w *Workspace) Load(ctx context.Context) (*schema.Document, error) {
	text, err := w.Read(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Parse(text, schema.WithTypes(w.types))
	if err != nil {
		return nil, fmt.Errorf("workspace: parse %s: %w", w.path, err)
	}
	w.log.Debug("schema loaded",
		zap.String("path", w.path),
		zap.Int("bytes", len(text)),
		zap.Int("models", len(doc.Models())),
	)
	return doc, nil
}

// SaveResult reports what ended up on disk.
type SaveResult struct {
	// Text is the file content after the write and the formatter.
	Text string
	// FormatErr is set when the formatter failed. The write itself stands.
	FormatErr error
}

// Save writes text atomically and then runs the formatter. A formatter
// failure is reported in the result, not as an error.
func (w *Workspace) Save(ctx context.Context, text string) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}
	if err := writeAtomic(w.path, []byte(text)); err != nil {
		return SaveResult{}, fmt.Errorf("workspace: write %s: %w", w.path, err)
	}
	w.log.Debug("schema written", zap.String("path", w.path), zap.Int("bytes", len(text)))

	res := SaveResult{Text: text}
	if err := w.formatter.Format(ctx, w.path); err != nil {
		w.log.Warn("formatter failed", zap.String("path", w.path), zap.Error(err))
		res.FormatErr = err
		return res, nil
	}
	if _, nop := w.formatter.(NopFormatter); nop {
		return res, nil
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Warn("re-read after format failed", zap.String("path", w.path), zap.Error(err))
		return res, nil
	}
	res.Text = string(data)
	return res, nil
}

// writeAtomic replaces path with data through a temp file in the same
// directory. An existing file keeps its permissions.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644, renameio.WithExistingPermissions())
}
