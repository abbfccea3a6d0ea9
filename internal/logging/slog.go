package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// stdout is where records go without a log file.
var stdout io.Writer = os.Stdout

// SlogManager owns the process logger: a text handler on the log file (or
// stdout when there is none) and an optional JSON handler shipping records
// to Graylog.
type SlogManager struct {
	logger *slog.Logger
	gelf   *gelf.Writer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// ParseLevel converts a string log level to slog.Level. Unknown levels
// map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewGELFWriter connects a UDP GELF writer to a Graylog input.
func NewGELFWriter(addr, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", addr, err)
	}
	w.Facility = facility
	return w, nil
}

// Setup initializes the logging system. Records go to file when it is not
// nil and to stdout otherwise. A non-nil graylog writer receives every
// record as JSON. provider adds dynamic attributes such as the current
// tick and may be nil.
func (m *SlogManager) Setup(file io.Writer, level string, graylog *gelf.Writer, provider ContextProvider) {
	lvl := ParseLevel(level)
	m.gelf = graylog

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stdout, handlerOpts))
	}
	if graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(graylog, handlerOpts))
	}

	var h slog.Handler = NewMultiHandler(handlers...)
	if provider != nil {
		h = NewContextHandler(h, provider)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", lvl.String(), "graylog", graylog != nil)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases the Graylog connection, if any.
func (m *SlogManager) Close() error {
	if m.gelf == nil {
		return nil
	}
	err := m.gelf.Close()
	m.gelf = nil
	return err
}
