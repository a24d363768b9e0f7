package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/inventory"
	jobmetrics "github.com/mitrahub/mitrahub/internal/jobs"
	"github.com/mitrahub/mitrahub/internal/mitra"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Mailer queues an e-mail for delivery.
type Mailer interface {
	EnqueueMail(ctx context.Context, to, subject, body string) error
}

// ExpiringSource lists mitra whose contract ends soon.
type ExpiringSource interface {
	Expiring(ctx context.Context, withinMonths int) ([]mitra.Mitra, error)
}

// ContractScanJob mails reminders for contracts ending within the window.
type ContractScanJob struct {
	Source       ExpiringSource
	Mailer       Mailer
	AdminEmail   string
	WithinMonths int
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// Handle runs one scan.
func (j *ContractScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("contract scan: handler not configured")
	}
	var payload ContractScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.WithinMonths <= 0 {
		payload.WithinMonths = j.WithinMonths
	}
	if payload.WithinMonths <= 0 {
		payload.WithinMonths = 3
	}

	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskContractScan)
	defer func() { err = tracker.End(err) }()
	logger := loggerOrDefault(j.Logger, TaskContractScan).With(slog.Int("within_months", payload.WithinMonths))

	rows, err := j.Source.Expiring(ctx, payload.WithinMonths)
	if err != nil {
		logger.Error("load expiring contracts", slog.Any("error", err))
		return err
	}
	metrics.AddFindings("contract_expiring", len(rows))
	if len(rows) == 0 {
		logger.Info("no contracts nearing their end")
		return nil
	}

	var digest strings.Builder
	fmt.Fprintf(&digest, "%d kontrak mitra berakhir dalam %d bulan:\n\n", len(rows), payload.WithinMonths)
	for _, m := range rows {
		logger.Warn("contract nearing end", slog.Int64("mitra_id", m.ID), slog.Int("months_remaining", m.Contract.MonthsRemaining))
		fmt.Fprintf(&digest, "- %s: %s (berakhir %s)\n", m.Name, m.Contract.Badge.Label, m.Contract.EndDateLabel)
		if m.Email != "" && j.Mailer != nil {
			body := fmt.Sprintf("Halo %s,\n\nKontrak kemitraan Anda berakhir pada %s (%s).\nSilakan hubungi admin untuk perpanjangan.\n",
				m.Name, m.Contract.EndDateLabel, m.Contract.Badge.Label)
			if err := j.Mailer.EnqueueMail(ctx, m.Email, "Pengingat kontrak kemitraan", body); err != nil {
				logger.Error("enqueue mitra reminder", slog.Int64("mitra_id", m.ID), slog.Any("error", err))
				return err
			}
		}
	}
	if j.Mailer == nil || j.AdminEmail == "" {
		return nil
	}
	return j.Mailer.EnqueueMail(ctx, j.AdminEmail, "Kontrak mitra segera berakhir", digest.String())
}

// LowStockSource lists items at or below their minimum stock.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]inventory.Item, error)
}

// LowStockScanJob mails the admin a digest of low items.
type LowStockScanJob struct {
	Source     LowStockSource
	Mailer     Mailer
	AdminEmail string
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// Handle runs one scan.
func (j *LowStockScanJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Source == nil {
		return errors.New("low stock scan: handler not configured")
	}
	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()
	logger := loggerOrDefault(j.Logger, TaskLowStockScan)

	items, err := j.Source.LowStock(ctx)
	if err != nil {
		logger.Error("load low stock", slog.Any("error", err))
		return err
	}
	metrics.AddFindings("low_stock", len(items))
	if len(items) == 0 || j.Mailer == nil || j.AdminEmail == "" {
		logger.Info("low stock scan finished", slog.Int("items", len(items)))
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d bahan baku berada di bawah stok minimum:\n\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %s %s (min %s)\n", it.Name, format.Number(it.CurrentStock), it.Unit, format.Number(it.MinStock))
	}
	return j.Mailer.EnqueueMail(ctx, j.AdminEmail, "Stok rendah", b.String())
}

// Warmer pre-computes cached summaries and reports how many groups it built.
type Warmer interface {
	WarmUp(ctx context.Context) (int, error)
}

// SalesWarmupJob fills the sales summary cache ahead of the morning rush.
type SalesWarmupJob struct {
	Sales   Warmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle runs one warm-up.
func (j *SalesWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Sales == nil {
		return errors.New("sales warmup: handler not configured")
	}
	tracker := metricsOrDefault(j.Metrics).Track(TaskSalesWarmup)
	defer func() { err = tracker.End(err) }()
	logger := loggerOrDefault(j.Logger, TaskSalesWarmup)

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	start := time.Now()
	groups, err := j.Sales.WarmUp(warmCtx)
	if err != nil {
		logger.Error("warm sales summaries", slog.Any("error", err))
		return err
	}
	logger.Info("completed sales warmup", slog.Int("groups", groups), slog.Duration("duration", time.Since(start)))
	return nil
}

// Cleaner purges idempotency keys older than the retention.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob deletes expired idempotency keys.
type IdempotencyCleanupJob struct {
	Store     Cleaner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle runs one purge.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload CleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	tracker := metricsOrDefault(j.Metrics).Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	loggerOrDefault(j.Logger, TaskIdempotencyCleanup).Info("purged idempotency keys", slog.Int64("removed", removed))
	return nil
}

func loggerOrDefault(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}
