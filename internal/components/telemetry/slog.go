package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// SlogAPI implements API using the log/slog package.
type SlogAPI struct {
	logger *slog.Logger
}

// NewSlogAPI creates a SlogAPI that writes text logs to stderr at the given level.
func NewSlogAPI(level slog.Level) SlogAPI {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return SlogAPI{logger: slog.New(handler)}
}

// InitSlog sets the default slog logger, verbose enables debug output.
func InitSlog(verbose bool) SlogAPI {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	api := NewSlogAPI(level)
	slog.SetDefault(api.logger)
	return api
}

func (s SlogAPI) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	s.log().Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	s.log().Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	if !s.log().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	s.log().Debug(message, remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.log().Info("count", "id", id, "n", count)
}

// Info is used for the messages that users of the cli are expected to read.
func (s SlogAPI) Info(message string, args ...any) {
	s.log().Info(message, args...)
}
