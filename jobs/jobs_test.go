package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/inventory"
	jobmetrics "github.com/mitrahub/mitrahub/internal/jobs"
	"github.com/mitrahub/mitrahub/internal/mitra"
)

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) EnqueueMail(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (e *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (e *fakeEnqueuer) Close() error { return nil }

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestClientEnqueuesMailTask(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := &Client{client: enq, adminEmail: "admin@mitrahub.id"}

	require.NoError(t, client.EnqueueMail(context.Background(), "a@b.id", "Kode OTP", "123456"))
	require.NoError(t, client.NotifyLowStock(context.Background(), inventory.LowStockEvent{
		Name: "Tepung", Unit: "kg", CurrentStock: 2, MinStock: 5, At: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
	}))

	require.Len(t, enq.tasks, 2)
	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(enq.tasks[1].Payload(), &payload))
	require.Equal(t, TaskTypeSendEmail, enq.tasks[1].Type())
	require.Equal(t, "admin@mitrahub.id", payload.To)
	require.Equal(t, "Stok rendah: Tepung", payload.Subject)
	require.Contains(t, payload.Body, "2 kg")
}

func TestMailJobSendsThroughSMTP(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1025, From: "no-reply@mitrahub.id"})
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}
	job := &MailJob{Sender: sender, Metrics: testMetrics()}
	task, err := NewSendEmailTask(SendEmailPayload{To: "mitra@mitrahub.id", Subject: "Halo", Body: "baris 1\nbaris 2"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "127.0.0.1:1025", gotAddr)
	require.Equal(t, []string{"mitra@mitrahub.id"}, gotTo)
	require.Contains(t, gotMsg, "Subject: Halo\r\n")
	require.Contains(t, gotMsg, "baris 1\r\nbaris 2")
}

func TestMailJobSkipsRetryOnBadPayload(t *testing.T) {
	job := &MailJob{Sender: NewSMTPSender(SMTPConfig{}), Metrics: testMetrics()}
	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type expiringStub struct {
	rows   []mitra.Mitra
	within int
}

func (s *expiringStub) Expiring(ctx context.Context, withinMonths int) ([]mitra.Mitra, error) {
	s.within = withinMonths
	return s.rows, nil
}

func TestContractScanMailsMitraAndAdmin(t *testing.T) {
	src := &expiringStub{rows: []mitra.Mitra{
		{ID: 1, Name: "Sari", Email: "sari@mitrahub.id", Contract: mitra.Contract{MonthsRemaining: 2, EndDateLabel: "16 Desember 2026", Badge: format.NewBadge("2 bulan lagi", format.ToneRed)}},
		{ID: 2, Name: "Doni", Contract: mitra.Contract{MonthsRemaining: 3, EndDateLabel: "16 Januari 2027", Badge: format.NewBadge("3 bulan lagi", format.ToneAmber)}},
	}}
	mailer := &fakeMailer{}
	job := &ContractScanJob{Source: src, Mailer: mailer, AdminEmail: "admin@mitrahub.id", WithinMonths: 3, Metrics: testMetrics()}
	task, err := NewContractScanTask(0)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 3, src.within)
	require.Len(t, mailer.sent, 2)
	require.Equal(t, "sari@mitrahub.id", mailer.sent[0].to)
	require.Equal(t, "admin@mitrahub.id", mailer.sent[1].to)
	require.Contains(t, mailer.sent[1].body, "Doni: 3 bulan lagi")
}

func TestContractScanReturnsMailerError(t *testing.T) {
	src := &expiringStub{rows: []mitra.Mitra{{ID: 1, Name: "Sari", Email: "sari@mitrahub.id"}}}
	job := &ContractScanJob{Source: src, Mailer: &fakeMailer{err: errors.New("redis down")}, Metrics: testMetrics()}
	task, err := NewContractScanTask(3)
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

type lowStockStub struct{ items []inventory.Item }

func (s lowStockStub) LowStock(ctx context.Context) ([]inventory.Item, error) { return s.items, nil }

func TestLowStockScanDigest(t *testing.T) {
	mailer := &fakeMailer{}
	job := &LowStockScanJob{
		Source:     lowStockStub{items: []inventory.Item{{Name: "Gula", Unit: "kg", CurrentStock: 1500, MinStock: 2000}}},
		Mailer:     mailer,
		AdminEmail: "admin@mitrahub.id",
		Metrics:    testMetrics(),
	}
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskLowStockScan, nil)))
	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0].body, "Gula: 1.500 kg (min 2.000)")

	empty := &LowStockScanJob{Source: lowStockStub{}, Mailer: mailer, AdminEmail: "admin@mitrahub.id", Metrics: testMetrics()}
	require.NoError(t, empty.Handle(context.Background(), asynq.NewTask(TaskLowStockScan, nil)))
	require.Len(t, mailer.sent, 1)
}

type warmerStub struct {
	groups int
	err    error
}

func (w warmerStub) WarmUp(ctx context.Context) (int, error) { return w.groups, w.err }

func TestSalesWarmupPropagatesErrors(t *testing.T) {
	ok := &SalesWarmupJob{Sales: warmerStub{groups: 4}, Metrics: testMetrics()}
	require.NoError(t, ok.Handle(context.Background(), asynq.NewTask(TaskSalesWarmup, nil)))

	failing := &SalesWarmupJob{Sales: warmerStub{err: errors.New("db down")}, Metrics: testMetrics()}
	require.Error(t, failing.Handle(context.Background(), asynq.NewTask(TaskSalesWarmup, nil)))

	var unset *SalesWarmupJob
	require.Error(t, unset.Handle(context.Background(), asynq.NewTask(TaskSalesWarmup, nil)))
}

type cleanerStub struct{ olderThan time.Duration }

func (c *cleanerStub) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	c.olderThan = olderThan
	return 7, nil
}

func TestIdempotencyCleanupUsesPayloadRetention(t *testing.T) {
	store := &cleanerStub{}
	job := &IdempotencyCleanupJob{Store: store, Retention: time.Hour, Metrics: testMetrics()}

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 48*time.Hour, store.olderThan)

	task, err = NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, time.Hour, store.olderThan)
}

type inspectorStub struct {
	info *asynq.QueueInfo
	err  error
}

func (s inspectorStub) GetQueueInfo(queue string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthEndpoint(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rr
	}

	rr := serve(NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"archived":0,"processedToday":0,"failedToday":0,"paused":false}`, rr.Body.String())

	rr = serve(NewHandler(inspectorStub{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Failed: 1}}, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), `"pending":3`))

	rr = serve(NewHandler(inspectorStub{err: errors.New("redis down")}, nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
