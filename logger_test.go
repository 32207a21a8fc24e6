package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "info", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.verbose)

			logger.Debug().Msg("row details")
			logger.Info().Str("file", "stmt.xlsx").Msg("processing file")

			output := buf.String()
			if strings.Contains(output, "row details") != tt.wantDebug {
				t.Errorf("unexpected debug output: %q", output)
			}
			if !strings.Contains(output, "processing file") || !strings.Contains(output, "stmt.xlsx") {
				t.Errorf("expected info message with field, got %q", output)
			}
			if strings.Contains(output, "\x1b[") {
				t.Errorf("expected no colors for buffer, got %q", output)
			}
		})
	}
}

func TestLoggerFrom_Context(t *testing.T) {
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, false))

	loggerFrom(ctx).Info().Msg("from context")
	loggerFrom(context.Background()).Info().Msg("disabled")

	if !strings.Contains(buf.String(), "from context") || strings.Contains(buf.String(), "disabled") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
