// Package cli holds operator subcommands of the mitrahub binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mitrahub/mitrahub/jobs"
)

// ErrUsage is returned for malformed subcommand arguments.
var ErrUsage = errors.New("usage: mitrahub jobs trigger <task> | stats | scheduled")

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TaskFor builds the default payload task for a scheduled job name.
func TaskFor(name string) (*asynq.Task, error) {
	switch name {
	case jobs.TaskContractScan:
		return jobs.NewContractScanTask(0)
	case jobs.TaskLowStockScan:
		return jobs.NewLowStockScanTask()
	case jobs.TaskSalesWarmup:
		return jobs.NewSalesWarmupTask()
	case jobs.TaskIdempotencyCleanup:
		return jobs.NewIdempotencyCleanupTask(0)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %q", name)
	}
}

// Trigger enqueues a supported job by name with default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := TaskFor(name)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

// RunJobs executes `mitrahub jobs ...` and writes a human readable result.
func RunJobs(ctx context.Context, redisAddr string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	switch args[0] {
	case "trigger":
		if len(args) != 2 {
			return ErrUsage
		}
		if _, err := TaskFor(args[1]); err != nil {
			return err
		}
	case "stats", "scheduled":
	default:
		return ErrUsage
	}

	c := NewJobsCLI(redisAddr)
	defer c.Close()

	switch args[0] {
	case "trigger":
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "scheduled":
		tasks, err := c.ListScheduled(10)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Fprintf(out, "%s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.Format(time.RFC3339))
		}
	}
	return nil
}
