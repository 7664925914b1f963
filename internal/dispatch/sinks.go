package dispatch

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"formsim-backend/internal/components/chrono"
	"formsim-backend/internal/components/telemetry"
	"formsim-backend/internal/db"
	"formsim-backend/internal/form"

	"github.com/google/uuid"
)

const report_history_sink = "history-sink"

// SlogSink writes the run log through slog.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s SlogSink) OnLog(entry LogEntry) {
	level := slog.LevelInfo
	switch entry.Status {
	case StatusError:
		level = slog.LevelWarn
	case StatusStopped:
		level = slog.LevelWarn
	}
	s.logger().Log(context.Background(), level, entry.Message, "id", entry.ID, "status", entry.Status)
}

func (s SlogSink) OnProgress(done, total int) {
	s.logger().Debug("progress", "done", done, "total", total)
}

// MultiSink forwards every event to each of its sinks in order.
type MultiSink []Sink

func (m MultiSink) OnLog(entry LogEntry) {
	for _, s := range m {
		s.OnLog(entry)
	}
}

func (m MultiSink) OnProgress(done, total int) {
	for _, s := range m {
		s.OnProgress(done, total)
	}
}

// HistorySink stores a run and its log in the database.
type HistorySink struct {
	RunID string

	ctx  context.Context
	qry  *db.Queries
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewHistorySink(ctx context.Context, qry *db.Queries, parsed form.ParsedForm, target int, timeAPI chrono.TimeAPI, tel telemetry.API) (HistorySink, error) {
	if timeAPI == nil {
		timeAPI = chrono.NewStandardTime()
	}
	sink := HistorySink{
		RunID: uuid.NewString(),
		ctx:   context.WithoutCancel(ctx),
		qry:   qry,
		time:  timeAPI,
		tel:   tel,
	}
	err := qry.CreateRun(ctx, db.CreateRunParams{
		ID:        sink.RunID,
		FormTitle: parsed.Title,
		ActionUrl: parsed.ActionURL,
		Target:    int64(target),
		State:     StateRunning.String(),
		StartedAt: timeAPI.Now().Unix(),
	})
	if err != nil {
		return HistorySink{}, fmt.Errorf("create run: %w", err)
	}
	return sink, nil
}

func (h HistorySink) OnLog(entry LogEntry) {
	err := h.qry.CreateRunLog(h.ctx, db.CreateRunLogParams{
		RunID:     h.RunID,
		EntryID:   int64(entry.ID),
		Status:    string(entry.Status),
		Message:   entry.Message,
		CreatedAt: entry.Time.Unix(),
	})
	if err != nil {
		h.tel.ReportBroken(report_history_sink, fmt.Errorf("insert run log: %w", err), h.RunID, entry.ID)
	}
}

func (h HistorySink) OnProgress(int, int) {}

// Finish records the outcome of the run.
func (h HistorySink) Finish(result Result) error {
	return h.qry.FinishRun(h.ctx, db.FinishRunParams{
		State:      result.State.String(),
		Attempted:  int64(result.Attempted),
		Succeeded:  int64(result.Succeeded),
		FinishedAt: sql.NullInt64{Int64: h.time.Now().Unix(), Valid: true},
		ID:         h.RunID,
	})
}
