package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Options tunes the handler built by New.
type Options struct {
	Level     slog.Level
	AddSource bool
}

// New returns a JSON logger writing to w. Records use the timestamp, severity
// and message keys, and every line carries the service name plus the
// environment when one is set.
func New(w io.Writer, service, env string, opts Options) *slog.Logger {
	return slog.New(newHandler(w, service, env, opts))
}

func newHandler(w io.Writer, service, env string, opts Options) slog.Handler {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
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
	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return handler.WithAttrs(attrs)
}

// Setup installs a stdout JSON logger as the slog default and routes the
// standard library logger through it. Debug records are enabled outside
// production.
func Setup(service, env string) *slog.Logger {
	opts := Options{Level: slog.LevelInfo}
	if e := strings.ToLower(strings.TrimSpace(env)); e == "dev" || e == "local" || e == "test" {
		opts.Level = slog.LevelDebug
	}
	handler := newHandler(os.Stdout, service, env, opts)
	base := slog.New(handler)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler, slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
