package restock

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusPending, StatusPending, false},
		{Status("lost"), StatusCancelled, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionsNeverMoveBackward(t *testing.T) {
	rank := map[Status]int{StatusPending: 0, StatusProcessing: 1, StatusShipped: 2, StatusDelivered: 3}
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		current := StatusPending
		for step := 0; step < 10; step++ {
			to := allStatuses[rng.Intn(len(allStatuses))]
			if !CanTransition(current, to) {
				continue
			}
			require.False(t, current.Terminal())
			if to != StatusCancelled {
				require.Equal(t, rank[current]+1, rank[to])
			}
			current = to
		}
		if current.Terminal() {
			for _, to := range allStatuses {
				require.False(t, CanTransition(current, to))
			}
		}
	}
}

func TestStatusBadges(t *testing.T) {
	require.Equal(t, "Menunggu", StatusPending.Badge().Label)
	require.Equal(t, "Dibatalkan", StatusCancelled.Badge().Label)
	require.Equal(t, "red", string(StatusCancelled.Badge().Tone))
	require.Equal(t, "green", string(StatusDelivered.Badge().Tone))
}
