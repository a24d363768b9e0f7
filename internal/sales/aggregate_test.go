package sales

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeDerivesMissingCashIn(t *testing.T) {
	r := Record{CashValue: 300000, QrisValue: 200000, CashOut: 150000}
	Normalize(&r)
	require.Equal(t, 500000.0, r.CashIn)
	require.Equal(t, 350000.0, r.NetIncome)
	require.Equal(t, "Rp 350.000", r.NetIncomeLabel)

	r = Record{CashIn: 400000, CashOut: 50000}
	Normalize(&r)
	require.Equal(t, 400000.0, r.CashIn)
	require.Equal(t, 350000.0, r.NetIncome)
}

func TestNormalizeKeepsGivenCashIn(t *testing.T) {
	r := Record{CashIn: 999, CashValue: 300000, CashOut: 99}
	Normalize(&r)
	require.Equal(t, 999.0, r.CashIn)
	require.Equal(t, 900.0, r.NetIncome)
}

func TestSplitMismatch(t *testing.T) {
	require.False(t, SplitMismatch(Record{CashIn: 500000}))
	require.False(t, SplitMismatch(Record{CashValue: 300000}))
	require.False(t, SplitMismatch(Record{CashIn: 500000, CashValue: 300000, QrisValue: 200000}))
	require.True(t, SplitMismatch(Record{CashIn: 500000, CashValue: 300000}))
}

func TestWeekStartsOnSunday(t *testing.T) {
	require.Equal(t, day("2026-10-11"), WeekStart(day("2026-10-16")))
	require.Equal(t, day("2026-10-11"), WeekStart(day("2026-10-11")))
	require.Equal(t, day("2026-10-11"), WeekStart(day("2026-10-17")))
	require.Equal(t, day("2026-09-27"), WeekStart(day("2026-10-01")))
}

func TestAggregateWeeklyAndMonthly(t *testing.T) {
	records := []Record{
		{Date: day("2026-09-30"), CashIn: 100, CashOut: 10},
		{Date: day("2026-10-01"), CashIn: 200, CashOut: 20},
		{Date: day("2026-10-11"), CashIn: 300, CashOut: 30},
		{Date: day("2026-10-17"), CashIn: 400, CashOut: 40},
	}

	weekly := Aggregate(records, PeriodWeekly)
	require.Len(t, weekly, 2)
	require.Equal(t, "2026-09-27", weekly[0].Key)
	require.Equal(t, 2, weekly[0].Transactions)
	require.Equal(t, 270.0, weekly[0].NetIncome)
	require.Equal(t, day("2026-10-03"), weekly[0].End)
	require.Equal(t, "2026-10-11", weekly[1].Key)
	require.Equal(t, 630.0, weekly[1].NetIncome)

	monthly := Aggregate(records, PeriodMonthly)
	require.Len(t, monthly, 2)
	require.Equal(t, "2026-09", monthly[0].Key)
	require.Equal(t, "September 2026", monthly[0].Label)
	require.Equal(t, 1, monthly[0].Transactions)
	require.Equal(t, "2026-10", monthly[1].Key)
	require.Equal(t, 3, monthly[1].Transactions)
	require.Equal(t, day("2026-10-31"), monthly[1].End)
}

func TestAggregationIsPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(20261016))
	start := day("2026-01-01")
	for run := 0; run < 50; run++ {
		n := rng.Intn(120)
		records := make([]Record, n)
		for i := range records {
			records[i] = Record{
				Date:      start.AddDate(0, 0, rng.Intn(365)),
				CashValue: float64(rng.Intn(500) * 1000),
				QrisValue: float64(rng.Intn(500) * 1000),
				CashOut:   float64(rng.Intn(300) * 1000),
			}
		}
		total := Total(records)
		for _, period := range []Period{PeriodWeekly, PeriodMonthly} {
			var (
				net   float64
				count int
			)
			for _, g := range Aggregate(records, period) {
				net += g.NetIncome
				count += g.Transactions
			}
			require.InDelta(t, total.NetIncome, net, 0.001, "period %s run %d", period, run)
			require.Equal(t, n, count)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	require.Equal(t, PeriodMonthly, p)
	p, err = ParsePeriod("weekly")
	require.NoError(t, err)
	require.Equal(t, PeriodWeekly, p)
	_, err = ParsePeriod("daily")
	require.Error(t, err)
}
