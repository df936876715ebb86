package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/config"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach the encoder with their real value.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"token":         {},
	"access":        {},
	"refresh":       {},
	"authorization": {},
	"secret":        {},
}

// New builds the process logger: JSON in production format, console
// otherwise. Credential-bearing fields are masked whatever the format.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{cfg.OutputPath}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	log, err := zapCfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.WrapCore(Redact),
	)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

// With returns a child of log carrying the service name and version, used as
// the root logger of the process.
func With(log *zap.Logger, app config.AppConfig) *zap.Logger {
	return log.With(
		zap.String("service", app.Name),
		zap.String("version", app.Version),
		zap.String("env", app.Environment),
	)
}

// Redact wraps core so that sensitive fields are replaced before encoding.
func Redact(core zapcore.Core) zapcore.Core {
	return redactCore{Core: core}
}

type redactCore struct {
	zapcore.Core
}

func (c redactCore) With(fields []zapcore.Field) zapcore.Core {
	return redactCore{Core: c.Core.With(scrub(fields))}
}

func (c redactCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c redactCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, scrub(fields))
}

func scrub(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if _, ok := sensitiveKeys[strings.ToLower(f.Key)]; !ok {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i] = zap.String(f.Key, redacted)
	}
	if out == nil {
		return fields
	}
	return out
}
