package worker

import (
	"context"
	"errors"
	"time"

	"smartturf/internal/models"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the export backlog cannot accept more work.
var ErrQueueFull = errors.New("export queue is full")

// Exporter renders one report for a date range and returns its file path.
type Exporter interface {
	Export(ctx context.Context, start, end time.Time) (string, error)
}

type exportTask struct {
	Start time.Time
	End   time.Time
}

// ExportWorker drains queued report requests sequentially so excelize never
// runs more than one file at a time. Failed exports are retried with backoff
// before the task is dropped.
type ExportWorker struct {
	exporter    Exporter
	retryPolicy RetryPolicy
	queue       chan exportTask
	logger      *zerolog.Logger
}

func NewExportWorker(exporter Exporter, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		exporter:    exporter,
		retryPolicy: retry,
		queue:       make(chan exportTask, models.ExportQueueSize),
		logger:      logger,
	}
}

// Enqueue accepts a report request without blocking the caller.
func (w *ExportWorker) Enqueue(_ context.Context, start, end time.Time) error {
	select {
	case w.queue <- exportTask{Start: start, End: end}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the main loop; stops when ctx is done.
func (w *ExportWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("export worker started")
	defer w.logger.Info().Msg("export worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		}
	}
}

func (w *ExportWorker) processTask(ctx context.Context, task exportTask) {
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		filePath, err := w.exporter.Export(ctx, task.Start, task.End)
		if err == nil {
			w.logger.Info().Str("file_path", filePath).Msg("export completed")
			return
		}

		w.logger.Warn().Err(err).
			Int("attempt", attempt).
			Time("start", task.Start).
			Time("end", task.End).
			Msg("export attempt failed")

		if attempt == w.retryPolicy.MaxRetries {
			w.logger.Error().
				Time("start", task.Start).
				Time("end", task.End).
				Msg("export dropped after retries")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}
}
