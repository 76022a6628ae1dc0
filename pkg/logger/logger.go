package logger

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MetricLevel sits below zap's debug level so metric lines carry their own label.
const MetricLevel = zapcore.Level(-2)

type Logger interface {
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Metric(name string, value float64)
	With(keysAndValues ...interface{}) Logger
}

// ZapLogger writes INFO, WARNING, ERROR and METRIC lines to a single sink.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case MetricLevel:
		enc.AppendString("METRIC")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	default:
		enc.AppendString(l.CapitalString())
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      encodeLevel,
		EncodeTime:       zapcore.TimeEncoderOfLayout(time.RFC3339Nano),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// New builds a logger writing to w. Every level, METRIC included, is enabled.
func New(w zapcore.WriteSyncer) *ZapLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		w,
		zap.NewAtomicLevelAt(MetricLevel),
	)

	return &ZapLogger{sugar: zap.New(core).Sugar()}
}

// NewFileLogger appends to the file at path, creating it if necessary.
func NewFileLogger(fs afero.Fs, path string) (*ZapLogger, func() error, error) {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open log file %s", path)
	}

	l := New(zapcore.AddSync(f))
	closer := func() error {
		_ = l.sugar.Sync()
		return f.Close()
	}

	return l, closer, nil
}

func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Info(args ...interface{}) {
	l.sugar.Info(args...)
}

func (l *ZapLogger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *ZapLogger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

func (l *ZapLogger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

// Metric records a named numeric measurement, e.g. a download duration in seconds.
func (l *ZapLogger) Metric(name string, value float64) {
	if ce := l.sugar.Desugar().Check(MetricLevel, name); ce != nil {
		ce.Write(zap.Float64("value", value))
	}
}

func (l *ZapLogger) With(keysAndValues ...interface{}) Logger {
	return &ZapLogger{sugar: l.sugar.With(keysAndValues...)}
}
