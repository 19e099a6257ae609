package resilience

import (
	"log/slog"

	"go.uber.org/zap"
)

// Level is the severity of a logged message.
type Level int

const (
	// LevelDebug is for verbose diagnostic detail.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages, such as retry attempts.
	LevelInfo

	// LevelWarn is for degraded conditions, such as exhausted retries or a
	// circuit breaker state change.
	LevelWarn

	// LevelError is for failures that end a call.
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Sink accepts leveled, structured log messages from resilience units.
// args are alternating key/value pairs, slog style. Implementations must be
// safe for concurrent use; the same sink instance is shared by every unit in
// a pipeline.
//
// A sink may write to the console, ship messages to a telemetry backend, or
// anything else; the library only requires this one method.
type Sink interface {
	Log(level Level, msg string, args ...any)
}

// NopSink discards every message. It is the sink a pipeline uses when no
// sinks were registered on the builder.
type NopSink struct{}

// Log implements Sink.
func (NopSink) Log(Level, string, ...any) {}

// MultiSink fans every message out to all of its sinks, in registration order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that forwards each message to every given sink.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: append([]Sink(nil), sinks...)}
}

// Log implements Sink.
func (s *MultiSink) Log(level Level, msg string, args ...any) {
	for _, sink := range s.sinks {
		sink.Log(level, msg, args...)
	}
}

// SlogSink adapts a *slog.Logger as a Sink. This is the usual console sink:
//
//	sink := resilience.NewSlogSink(slog.New(slog.NewTextHandler(os.Stdout, nil)))
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a Sink backed by logger. A nil logger falls back to
// slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Log implements Sink.
func (s *SlogSink) Log(level Level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		s.logger.Debug(msg, args...)
	case LevelInfo:
		s.logger.Info(msg, args...)
	case LevelWarn:
		s.logger.Warn(msg, args...)
	default:
		s.logger.Error(msg, args...)
	}
}

// ZapSink adapts a zap sugared logger as a Sink, for services already
// standardized on go.uber.org/zap.
type ZapSink struct {
	logger *zap.SugaredLogger
}

// NewZapSink creates a Sink backed by logger. A nil logger falls back to
// zap.NewNop().
func NewZapSink(logger *zap.SugaredLogger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ZapSink{logger: logger}
}

// Log implements Sink.
func (s *ZapSink) Log(level Level, msg string, args ...any) {
	switch level {
	case LevelDebug:
		s.logger.Debugw(msg, args...)
	case LevelInfo:
		s.logger.Infow(msg, args...)
	case LevelWarn:
		s.logger.Warnw(msg, args...)
	default:
		s.logger.Errorw(msg, args...)
	}
}

// combineSinks reduces registered sinks to one logical sink: zero sinks give
// a no-op, a single sink is used directly, several fan out in order.
func combineSinks(sinks []Sink) Sink {
	switch len(sinks) {
	case 0:
		return NopSink{}
	case 1:
		return sinks[0]
	default:
		return NewMultiSink(sinks...)
	}
}
