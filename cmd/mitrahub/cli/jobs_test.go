package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mitrahub/mitrahub/jobs"
)

func TestTaskForKnownJobs(t *testing.T) {
	for _, name := range []string{jobs.TaskContractScan, jobs.TaskLowStockScan, jobs.TaskSalesWarmup, jobs.TaskIdempotencyCleanup} {
		task, err := TaskFor(name)
		require.NoError(t, err, name)
		require.Equal(t, name, task.Type())
	}
	_, err := TaskFor(jobs.TaskTypeSendEmail)
	require.Error(t, err)
}

func TestRunJobsRejectsBadArguments(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()
	require.ErrorIs(t, RunJobs(ctx, "127.0.0.1:0", nil, &out), ErrUsage)
	require.ErrorIs(t, RunJobs(ctx, "127.0.0.1:0", []string{"trigger"}, &out), ErrUsage)
	require.ErrorIs(t, RunJobs(ctx, "127.0.0.1:0", []string{"purge"}, &out), ErrUsage)
	require.Error(t, RunJobs(ctx, "127.0.0.1:0", []string{"trigger", "report:build"}, &out))
	require.Empty(t, out.String())
}
