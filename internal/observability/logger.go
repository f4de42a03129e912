// Package observability provides the structured logger shared by the API,
// the CLI and the search pipeline.
package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is a leveled zerolog logger. A nil *Logger discards everything.
type Logger struct {
	zl zerolog.Logger
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Format      string // json or console
	Output      io.Writer
	ServiceName string
}

// NewLogger creates a Logger writing to cfg.Output (stdout by default).
func NewLogger(cfg LogConfig) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zc := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		zc = zc.Str("service", cfg.ServiceName)
	}
	return &Logger{zl: zc.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) base() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.zl
}

func (l *Logger) at(level zerolog.Level) *LogEvent {
	zl := l.base()
	return &LogEvent{evt: zl.WithLevel(level)}
}

func (l *Logger) Debug() *LogEvent { return l.at(zerolog.DebugLevel) }
func (l *Logger) Info() *LogEvent  { return l.at(zerolog.InfoLevel) }
func (l *Logger) Warn() *LogEvent  { return l.at(zerolog.WarnLevel) }
func (l *Logger) Error() *LogEvent { return l.at(zerolog.ErrorLevel) }

// Fatal logs and exits the process once the event is sent.
func (l *Logger) Fatal() *LogEvent {
	zl := l.base()
	return &LogEvent{evt: zl.Fatal()}
}

// WithComponent returns a logger tagged with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.base().With().Str("component", name).Logger()}
}

// WithContext returns a logger carrying the request's trace id and client,
// or l itself when the context has neither.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	info, _ := ctx.Value(requestKey{}).(requestInfo)
	if info == (requestInfo{}) {
		return l
	}
	zc := l.base().With()
	if info.traceID != "" {
		zc = zc.Str("trace_id", info.traceID)
	}
	if info.client != "" {
		zc = zc.Str("client", info.client)
	}
	return &Logger{zl: zc.Logger()}
}

// LogEvent is a single log line being built. Fields are no-ops when the
// level is filtered out.
type LogEvent struct {
	evt *zerolog.Event
}

func (e *LogEvent) Str(key, val string) *LogEvent {
	e.evt = e.evt.Str(key, val)
	return e
}

func (e *LogEvent) Strs(key string, val []string) *LogEvent {
	e.evt = e.evt.Strs(key, val)
	return e
}

func (e *LogEvent) Int(key string, val int) *LogEvent {
	e.evt = e.evt.Int(key, val)
	return e
}

func (e *LogEvent) Int64(key string, val int64) *LogEvent {
	e.evt = e.evt.Int64(key, val)
	return e
}

func (e *LogEvent) Float64(key string, val float64) *LogEvent {
	e.evt = e.evt.Float64(key, val)
	return e
}

func (e *LogEvent) Bool(key string, val bool) *LogEvent {
	e.evt = e.evt.Bool(key, val)
	return e
}

func (e *LogEvent) Dur(key string, val time.Duration) *LogEvent {
	e.evt = e.evt.Dur(key, val)
	return e
}

func (e *LogEvent) Err(err error) *LogEvent {
	e.evt = e.evt.Err(err)
	return e
}

// Msg sends the event.
func (e *LogEvent) Msg(msg string) {
	e.evt.Msg(msg)
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type requestKey struct{}

// requestInfo identifies the request a log line belongs to.
type requestInfo struct {
	traceID string
	client  string
}

func withRequestInfo(ctx context.Context, update func(*requestInfo)) context.Context {
	info, _ := ctx.Value(requestKey{}).(requestInfo)
	update(&info)
	return context.WithValue(ctx, requestKey{}, info)
}

// ContextWithTraceID returns ctx tagged with the request trace id.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return withRequestInfo(ctx, func(i *requestInfo) { i.traceID = traceID })
}

// ContextWithClient returns ctx tagged with the calling client's key.
func ContextWithClient(ctx context.Context, client string) context.Context {
	return withRequestInfo(ctx, func(i *requestInfo) { i.client = client })
}

// TraceIDFromContext returns the trace id set by ContextWithTraceID, or "".
func TraceIDFromContext(ctx context.Context) string {
	info, _ := ctx.Value(requestKey{}).(requestInfo)
	return info.traceID
}
