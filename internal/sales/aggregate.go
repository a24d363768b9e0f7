package sales

import (
	"math"
	"sort"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
)

// Normalize fills a missing CashIn from the cash and QRIS split and
// recomputes NetIncome. A CashIn that was given is never replaced.
func Normalize(r *Record) {
	if r.CashIn == 0 {
		r.CashIn = r.CashValue + r.QrisValue
	}
	r.NetIncome = r.CashIn - r.CashOut
	r.NetIncomeLabel = format.Rupiah(r.NetIncome)
	r.DateLabel = format.Date(r.Date)
}

// SplitMismatch reports whether a given CashIn disagrees with a non-empty
// cash and QRIS split.
func SplitMismatch(r Record) bool {
	if r.CashIn == 0 || (r.CashValue == 0 && r.QrisValue == 0) {
		return false
	}
	return math.Abs(r.CashIn-(r.CashValue+r.QrisValue)) >= 0.005
}

// WeekStart returns the Sunday at or before t, at midnight.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// MonthKey returns the "YYYY-MM" bucket of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Aggregate partitions records into period buckets ordered by start date.
// Every record lands in exactly one bucket.
func Aggregate(records []Record, period Period) []Group {
	buckets := map[string]*Group{}
	for _, r := range records {
		Normalize(&r)
		var (
			key        string
			label      string
			start, end time.Time
		)
		if period == PeriodWeekly {
			start = WeekStart(r.Date)
			end = start.AddDate(0, 0, 6)
			key = start.Format("2006-01-02")
			label = "Minggu " + format.ShortDate(start)
		} else {
			key = MonthKey(r.Date)
			start = time.Date(r.Date.Year(), r.Date.Month(), 1, 0, 0, 0, 0, r.Date.Location())
			end = start.AddDate(0, 1, -1)
			label = format.MonthLabel(key)
		}
		g, ok := buckets[key]
		if !ok {
			g = &Group{Key: key, Label: label, Start: start, End: end}
			buckets[key] = g
		}
		g.add(r)
	}
	out := make([]Group, 0, len(buckets))
	for _, g := range buckets {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Total sums records into a single group.
func Total(records []Record) Group {
	var g Group
	for _, r := range records {
		Normalize(&r)
		g.add(r)
	}
	g.Key = "total"
	g.Label = "Total"
	g.finish()
	return g
}

func (g *Group) add(r Record) {
	g.CashIn += r.CashIn
	g.CashValue += r.CashValue
	g.QrisValue += r.QrisValue
	g.CashOut += r.CashOut
	g.Transactions++
}

func (g *Group) finish() {
	g.NetIncome = g.CashIn - g.CashOut
	g.NetIncomeLabel = format.Rupiah(g.NetIncome)
}
