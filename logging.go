package opts

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger to the container.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *optionsConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// AuditEvent is the diagnostic produced when a PolicyWarn audit finds unused
// options. Values holds the offending keys' current values.
type AuditEvent struct {
	Scope   string
	Policy  Policy
	Unused  []string
	Orphans []string
	Values  map[string]any
	Final   bool
}

// AuditLogger receives unused-option diagnostics.
type AuditLogger interface {
	LogAudit(AuditEvent)
}

// AuditLoggerFunc adapts a function to AuditLogger.
type AuditLoggerFunc func(AuditEvent)

// LogAudit implements AuditLogger.
func (f AuditLoggerFunc) LogAudit(event AuditEvent) {
	if f != nil {
		f(event)
	}
}

type noopAuditLogger struct{}

func (noopAuditLogger) LogAudit(AuditEvent) {}

// WithAuditLogger replaces the default stderr logger used for PolicyWarn
// diagnostics. Passing nil silences them.
func WithAuditLogger(logger AuditLogger) Option {
	return func(cfg *optionsConfig) {
		cfg.auditLoggerSet = true
		if logger == nil {
			cfg.auditLogger = noopAuditLogger{}
			return
		}
		cfg.auditLogger = logger
	}
}

func (c *Container) auditLogger() AuditLogger {
	if c != nil && c.cfg.auditLoggerSet {
		return c.cfg.auditLogger
	}
	return stderrAuditLogger()
}

var (
	stderrAuditOnce sync.Once
	stderrAudit     AuditLogger
)

func stderrAuditLogger() AuditLogger {
	stderrAuditOnce.Do(func() {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zapcore.WarnLevel,
		)
		stderrAudit = NewZapAuditLogger(zap.New(core))
	})
	return stderrAudit
}

type zapAuditLogger struct {
	logger *zap.Logger
}

// NewZapAuditLogger logs audit diagnostics at warn level on logger.
func NewZapAuditLogger(logger *zap.Logger) AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return zapAuditLogger{logger: logger}
}

func (l zapAuditLogger) LogAudit(event AuditEvent) {
	fields := []zap.Field{
		zap.String("policy", event.Policy.String()),
		zap.Strings("unused", event.Unused),
	}
	if event.Scope != "" {
		fields = append(fields, zap.String("scope", event.Scope))
	}
	if len(event.Orphans) > 0 {
		fields = append(fields, zap.Strings("orphans", event.Orphans))
	}
	if len(event.Values) > 0 {
		fields = append(fields, zap.Any("values", event.Values))
	}
	if event.Final {
		fields = append(fields, zap.Bool("final", true))
	}
	l.logger.Warn("options were set but never used", fields...)
}

type zapEvaluatorLogger struct {
	logger *zap.Logger
}

// NewZapEvaluatorLogger logs successful default evaluations at debug level
// and failures at warn level.
func NewZapEvaluatorLogger(logger *zap.Logger) EvaluatorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return zapEvaluatorLogger{logger: logger}
}

func (l zapEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	fields := []zap.Field{
		zap.String("engine", event.Engine),
		zap.String("expr", event.Expr),
		zap.String("scope", event.Scope),
		zap.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		l.logger.Warn("default expression failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.logger.Debug("default expression evaluated", fields...)
}
