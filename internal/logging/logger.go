package logging

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler a logger writes through.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures New. The zero value logs JSON at info to stdout.
type Options struct {
	Output io.Writer
	Format Format
	// Level is parsed with ParseLevel.
	Level string
	// Attrs are attached to every record.
	Attrs []slog.Attr
}

// New builds a logger whose records carry a "timestamp" key instead of slog's "time".
func New(o Options) *slog.Logger {
	w := o.Output
	if w == nil {
		w = os.Stdout
	}

	handler := newHandler(w, o.Format, &slog.HandlerOptions{
		Level:       ParseLevel(o.Level),
		ReplaceAttr: renameTime,
	})
	if len(o.Attrs) > 0 {
		handler = handler.WithAttrs(o.Attrs)
	}

	return slog.New(handler)
}

func newHandler(w io.Writer, f Format, opts *slog.HandlerOptions) slog.Handler {
	if f == FormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// renameTime only touches the top-level time attr so grouped user attrs keep their keys.
func renameTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{Key: "timestamp", Value: a.Value}
	}
	return a
}

// ParseLevel accepts slog level names in any case, including offsets such
// as "warn+2". Anything unparseable falls back to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
