package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		verbose bool
		debug   bool
		warn    bool
	}{
		{verbose: false, debug: false, warn: true},
		{verbose: true, debug: true, warn: true},
	}
	for _, tt := range tests {
		logger, err := New(tt.verbose)
		if err != nil {
			t.Fatalf("New(%v) error = %v", tt.verbose, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("New(%v) debug enabled = %v, want %v", tt.verbose, got, tt.debug)
		}
		if got := logger.Core().Enabled(zapcore.WarnLevel); got != tt.warn {
			t.Errorf("New(%v) warn enabled = %v, want %v", tt.verbose, got, tt.warn)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) != tt.verbose {
			t.Errorf("New(%v) info enabled mismatch", tt.verbose)
		}
	}
}

func TestMust(t *testing.T) {
	if Must(false) == nil {
		t.Fatal("Must() returned nil")
	}
}
