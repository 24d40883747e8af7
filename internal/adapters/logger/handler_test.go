package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"go.trai.ch/sift/internal/adapters/logger"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{
			name:       "info level",
			level:      slog.LevelInfo,
			msg:        "information message",
			goldenName: "handler_info",
		},
		{
			name:       "warn level",
			level:      slog.LevelWarn,
			msg:        "warning message",
			goldenName: "handler_warn",
		},
		{
			name:       "error level",
			level:      slog.LevelError,
			msg:        "error message",
			goldenName: "handler_error",
		},
		{
			name:       "debug level filtered",
			level:      slog.LevelDebug,
			msg:        "debug message",
			goldenName: "handler_debug_filtered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			lg := slog.New(handler)

			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, nil)
	lg := slog.New(handler).With("root", "/project")

	lg.Info("watching", "files", 42)

	g := goldie.New(t)
	g.Assert(t, "handler_attrs", buf.Bytes())
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	handler := logger.NewPrettyHandler(buf, nil)
	lg := slog.New(handler).WithGroup("batch")

	lg.Info("flushed", "size", 3)

	g := goldie.New(t)
	g.Assert(t, "handler_group", buf.Bytes())
}
