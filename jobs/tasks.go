package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskContractScan looks for partnership contracts nearing their end.
	TaskContractScan = "mitra:contract_scan"
	// TaskLowStockScan reports inventory items at or below minimum stock.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskSalesWarmup pre-computes the current month sales summaries.
	TaskSalesWarmup = "sales:summary_warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ContractScanPayload configures the reminder window.
type ContractScanPayload struct {
	WithinMonths int `json:"within_months"`
}

// CleanupPayload configures how long idempotency keys are retained.
type CleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	return newTask(TaskTypeSendEmail, payload)
}

// NewContractScanTask constructs the scheduled contract reminder task.
func NewContractScanTask(withinMonths int) (*asynq.Task, error) {
	return newTask(TaskContractScan, ContractScanPayload{WithinMonths: withinMonths})
}

// NewLowStockScanTask constructs the scheduled low stock scan.
func NewLowStockScanTask() (*asynq.Task, error) {
	return newTask(TaskLowStockScan, struct{}{})
}

// NewSalesWarmupTask constructs the scheduled sales summary warm-up.
func NewSalesWarmupTask() (*asynq.Task, error) {
	return newTask(TaskSalesWarmup, struct{}{})
}

// NewIdempotencyCleanupTask constructs the scheduled key purge.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, CleanupPayload{Retention: retention})
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault)), nil
}
