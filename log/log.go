// Package log builds a querycache.Logger from configuration. The adapters
// live in the zap, logrus, zerolog and slog subpackages.
package log

import (
	"io"
	stdslog "log/slog"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-query-cache/internal/cacheinfra"
	logruslog "github.com/goliatone/go-query-cache/log/logrus"
	slogger "github.com/goliatone/go-query-cache/log/slog"
	zaplog "github.com/goliatone/go-query-cache/log/zap"
	zerologlog "github.com/goliatone/go-query-cache/log/zerolog"
	"github.com/goliatone/go-query-cache/querycache"
)

// Backend names accepted by Config.Backend.
const (
	BackendNop     = "nop"
	BackendZap     = "zap"
	BackendLogrus  = "logrus"
	BackendZerolog = "zerolog"
	BackendSlog    = "slog"
)

// Config contains structured logging configuration.
type Config struct {
	Backend string `mapstructure:"backend"` // nop, zap, logrus, zerolog, slog
	Level   string `mapstructure:"level"`   // debug, info, warn, error
	Format  string `mapstructure:"format"`  // json, console
	Output  string `mapstructure:"output"`  // stdout, stderr
}

func DefaultConfig() Config {
	return Config{Backend: BackendNop, Level: "info", Format: "json", Output: "stderr"}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendNop, BackendZap, BackendLogrus, BackendZerolog, BackendSlog)),
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Format, validation.In("json", "console")),
		validation.Field(&c.Output, validation.In("stdout", "stderr")),
	)
	return cacheinfra.ToConfigError("Log.", err)
}

// New builds the logger selected by cfg.Backend.
func New(cfg Config) (querycache.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithWriter(cfg, writerFor(cfg.Output))
}

// NewWithWriter is New with an explicit destination. The zap backend writes
// to w only for the json format.
func NewWithWriter(cfg Config, w io.Writer) (querycache.Logger, error) {
	level := strings.ToLower(cfg.Level)
	console := strings.EqualFold(cfg.Format, "console")

	switch cfg.Backend {
	case BackendZap:
		return zaplog.ZapLogger{L: newZap(level, console, w)}, nil
	case BackendLogrus:
		l := logrus.New()
		l.SetOutput(w)
		if lvl, err := logrus.ParseLevel(levelOrDefault(level)); err == nil {
			l.SetLevel(lvl)
		}
		if !console {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
		return logruslog.LogrusLogger{E: logrus.NewEntry(l)}, nil
	case BackendZerolog:
		out := w
		if console {
			out = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
		}
		lvl, err := zerolog.ParseLevel(levelOrDefault(level))
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		return zerologlog.ZerologLogger{L: zerolog.New(out).With().Timestamp().Logger().Level(lvl)}, nil
	case BackendSlog:
		opts := &stdslog.HandlerOptions{Level: slogLevel(level)}
		var h stdslog.Handler = stdslog.NewJSONHandler(w, opts)
		if console {
			h = stdslog.NewTextHandler(w, opts)
		}
		return slogger.Logger{L: stdslog.New(h)}, nil
	}
	return querycache.NopLogger{}, nil
}

func newZap(level string, console bool, w io.Writer) *zap.Logger {
	lvl, err := zapcore.ParseLevel(levelOrDefault(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	var enc zapcore.Encoder = zapcore.NewJSONEncoder(encCfg)
	if console {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
}

func levelOrDefault(level string) string {
	switch level {
	case "":
		return "info"
	case "warning":
		return "warn"
	}
	return level
}

func slogLevel(level string) stdslog.Level {
	switch levelOrDefault(level) {
	case "debug":
		return stdslog.LevelDebug
	case "warn":
		return stdslog.LevelWarn
	case "error":
		return stdslog.LevelError
	}
	return stdslog.LevelInfo
}

func writerFor(output string) io.Writer {
	if strings.EqualFold(output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}
