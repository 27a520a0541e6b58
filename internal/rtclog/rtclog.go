// Package rtclog configures structured logging for the consensus engine,
// following the JSON slog setup used across the rest of the pack.
package rtclog

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger. All log lines include the component
// name and, when non-empty, the active issue ID.
func Setup(component, issueID string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("component", strings.TrimSpace(component))}
	if issueID = strings.TrimSpace(issueID); issueID != "" {
		attrs = append(attrs, slog.String("issue", issueID))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// RotatingSink builds a lumberjack-backed writer for the ledger's optional
// passive persistence sink (§4.1: "Persistence, if any, is a passive
// sink"). It never participates in the replay guarantee — only the
// in-memory Ledger does.
func RotatingSink(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// RedactCredential returns only the first and last three characters of a
// credential, joined by an ellipsis, so that raw agent credentials never
// appear in the clear in log lines. Credentials of six characters or fewer
// are replaced by "[REDACTED]" entirely.
func RedactCredential(credential string) string {
	if len(credential) <= 6 {
		return "[REDACTED]"
	}
	return credential[:3] + "…" + credential[len(credential)-3:]
}
