package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Formatter rewrites the schema file in place after an edit.
type Formatter interface {
	Format(ctx context.Context, path string) error
}

// NopFormatter leaves the file alone.
type NopFormatter struct{}

func (NopFormatter) Format(context.Context, string) error { return nil }

// CommandFormatter runs an external command with the schema path appended.
type CommandFormatter struct {
	Argv []string
}

// NewFormatter returns a CommandFormatter for argv, or a NopFormatter when
// argv is empty.
func NewFormatter(argv []string) Formatter {
	if len(argv) == 0 || argv[0] == "" {
		return NopFormatter{}
	}
	return CommandFormatter{Argv: argv}
}

func (f CommandFormatter) Format(ctx context.Context, path string) error {
	if len(f.Argv) == 0 {
		return errors.New("formatter: empty command")
	}
	args := append(append([]string{}, f.Argv[1:]...), path)
	cmd := exec.CommandContext(ctx, f.Argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("formatter: %s: %w: %s", f.Argv[0], err, msg)
		}
		return fmt.Errorf("formatter: %s: %w", f.Argv[0], err)
	}
	return nil
}
