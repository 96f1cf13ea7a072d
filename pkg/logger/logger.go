package logger

import (
	"log/slog"
	"os"
)

func GetLogger() *slog.Logger {
	loggerOpts := slog.HandlerOptions{}
	if os.Getenv("LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &loggerOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &loggerOpts))
}
