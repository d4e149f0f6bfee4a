package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type WriteSyncer interface {
	io.Writer
	Sync() error
}

type dynamicWriter struct {
	mutex sync.Mutex
	w     WriteSyncer
}

func (d *dynamicWriter) Write(b []byte) (n int, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.w.Write(b)
}

func (d *dynamicWriter) Sync() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.w.Sync()
}

/*
DynamicLoggingConfig holds dynamic configuration for the time encoding and logging level.
*/
type DynamicLoggingConfig struct {
	mutex    sync.RWMutex
	encoding string
	level    zap.AtomicLevel
}

func (e *DynamicLoggingConfig) encodeTime(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
	e.mutex.RLock()
	encoding := e.encoding
	e.mutex.RUnlock()

	switch encoding {
	case "rfc3339":
		RFC3339Formatter()(t, pae)
	default:
		zapcore.EpochTimeEncoder(t, pae)
	}
}

/*
Logger owns one configured zap core. Components never share ambient state:
every component receives its own *slog.Logger derived from this instance
through CreateLoggerWithSource.
*/
type Logger struct {
	conf   *DynamicLoggingConfig
	writer *dynamicWriter
	base   *slog.Logger
}

/*
New creates a Logger writing JSON lines to sink with the provided logging level
and timestamp format ('rfc3339' or anything else for epoch).
*/
func New(sink WriteSyncer, level string, timestamp string) (*Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		conf:   &DynamicLoggingConfig{encoding: timestamp, level: zap.NewAtomicLevelAt(zapLevel)},
		writer: &dynamicWriter{w: sink},
	}

	zapConfig := zapcore.EncoderConfig{
		MessageKey:    "message",
		LevelKey:      "log_level",
		EncodeLevel:   numberLevelFormatter,
		TimeKey:       "timestamp",
		EncodeTime:    l.conf.encodeTime,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		StacktraceKey: "stack_trace",
	}

	zapCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapConfig),
		l.writer,
		l.conf.level,
	)

	l.base = slog.New(zapslog.NewHandler(zapCore, zapslog.WithCaller(true)))
	return l, nil
}

// NewStdout is New with os.Stdout as sink.
func NewStdout(level string, timestamp string) (*Logger, error) {
	return New(os.Stdout, level, timestamp)
}

// SetWriteSyncer sets the log handler's sink.
func (l *Logger) SetWriteSyncer(syncer WriteSyncer) {
	l.writer.mutex.Lock()
	defer l.writer.mutex.Unlock()
	l.writer.w = syncer
}

/*
SetTimeEncoder dynamically sets the time encoder at runtime:
'rfc3339': The encoder is set to a custom RFC3339 encoder
All other values: The encoder is set to an Epoch encoder
*/
func (l *Logger) SetTimeEncoder(enc string) {
	l.conf.mutex.Lock()
	defer l.conf.mutex.Unlock()
	l.conf.encoding = enc
}

/*
SetLoggingLevel dynamically sets the logging level at runtime. See https://github.com/uber-go/zap/blob/5786471c1d41c255c1d8b63ad30a82b68eda2c21/zapcore/level.go#L180
for possible logging levels.
*/
func (l *Logger) SetLoggingLevel(level string) error {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	l.conf.level.SetLevel(zapLevel)
	return nil
}

// SetMinLevel satisfies the lager reconfigurable sink contract used by the
// status listener.
func (l *Logger) SetMinLevel(level lager.LogLevel) {
	l.conf.level.SetLevel(toZapLevel(level))
}

// Level returns the current zap level.
func (l *Logger) Level() zapcore.Level {
	return l.conf.level.Level()
}

func toZapLevel(level lager.LogLevel) zapcore.Level {
	switch level {
	case lager.DEBUG:
		return zapcore.DebugLevel
	case lager.INFO:
		return zapcore.InfoLevel
	case lager.ERROR:
		return zapcore.ErrorLevel
	case lager.FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLagerLevel maps the textual level names accepted by the status
// listener onto lager levels.
func ParseLagerLevel(level string) (lager.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return lager.DEBUG, nil
	case "info":
		return lager.INFO, nil
	case "error":
		return lager.ERROR, nil
	case "fatal":
		return lager.FATAL, nil
	default:
		return lager.INFO, fmt.Errorf("unknown log level: %q", level)
	}
}

/*
CreateLoggerWithSource returns a copy of the logger, which comes with the 'source' attribute set to the provided
prefix and component. All subsequent log statements will be nested in the 'data' field.
*/
func (l *Logger) CreateLoggerWithSource(prefix string, component string) *slog.Logger {
	var appendix string

	if len(component) == 0 {
		appendix = prefix
	} else {
		appendix = prefix + "." + component
	}
	return l.base.With(slog.String("source", appendix)).WithGroup("data")
}

/*
CreateLogger returns a copy of the logger. All subsequent log statements will be nested in the 'data' field.
*/
func (l *Logger) CreateLogger() *slog.Logger {
	return l.base.WithGroup("data")
}

/*
ErrAttr is creating an slog.String attribute with 'error' key and the provided error message as value.
*/
func ErrAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}

/*
Fatal logs message and slogAttrs with Error level. For compatibility with zlog, the process is terminated
via os.Exit(1) after writing the log message.
*/
func Fatal(logger *slog.Logger, message string, slogAttrs ...any) {
	logger.Error(message, slogAttrs...)
	os.Exit(1)
}

func numberLevelFormatter(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendInt(levelNumber(level))
}

// We add 1 to zap's default values to match our setLoggingLevel definitions
// https://github.com/uber-go/zap/blob/5786471c1d41c255c1d8b63ad30a82b68eda2c21/zapcore/level.go#L37
func levelNumber(level zapcore.Level) int {
	return int(level) + 1
}

// RFC3339Formatter TimeEncoder for RFC3339 with trailing Z for UTC and nanoseconds
func RFC3339Formatter() zapcore.TimeEncoder {
	return zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000000000Z")
}
