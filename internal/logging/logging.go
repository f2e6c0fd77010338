// Package logging builds the JSON session logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// FileName is the log file written under the log directory. Every session on
// the host appends to the same file; the session attribute tells them apart.
const FileName = "pio-layer.jsonl"

// NewLogger opens logDir/FileName for appending and returns a JSON logger at
// level. When echo is non-nil records are also written there.
func NewLogger(logDir string, level string, session string, echo io.Writer) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf(messages.LoggingCreateDirFmt, logDir, err)
	}
	path := filepath.Join(logDir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf(messages.LoggingOpenFileFmt, path, err)
	}

	var w io.Writer = file
	if echo != nil {
		w = io.MultiWriter(echo, file)
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	})
	logger := slog.New(handler).With("session", session, "pid", os.Getpid())
	return logger, file, nil
}

// ParseLevel maps a config level name to a slog level; unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
