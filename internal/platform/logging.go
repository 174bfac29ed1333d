package platform

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nats-io/nats-server/v2/server"
)

// InitLogger sets up the global slog logger.
func InitLogger(cfg LogConfig) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: cfg.AddSource, Level: parseLevel(cfg.Level)})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// natsLoggerAdapter implements nats-server Logger interface using slog.
type natsLoggerAdapter struct {
	logger *slog.Logger
}

func NewNATSServerLogger(logger *slog.Logger) server.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &natsLoggerAdapter{logger: logger.With("component", "nats")}
}

func (nl *natsLoggerAdapter) Noticef(format string, v ...interface{}) {
	nl.logger.Debug(fmt.Sprintf(format, v...))
}
func (nl *natsLoggerAdapter) Warnf(format string, v ...interface{}) {
	nl.logger.Warn(fmt.Sprintf(format, v...))
}
func (nl *natsLoggerAdapter) Errorf(format string, v ...interface{}) {
	nl.logger.Error(fmt.Sprintf(format, v...))
}
func (nl *natsLoggerAdapter) Fatalf(format string, v ...interface{}) {
	nl.logger.Error("NATS FATAL: " + fmt.Sprintf(format, v...))
}
func (nl *natsLoggerAdapter) Debugf(format string, v ...interface{}) {
	nl.logger.Debug(fmt.Sprintf(format, v...))
}
func (nl *natsLoggerAdapter) Tracef(format string, v ...interface{}) {
	nl.logger.Debug("NATS TRACE: " + fmt.Sprintf(format, v...))
}
