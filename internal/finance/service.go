package finance

import (
	"context"
	"sort"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/sales"
	"github.com/mitrahub/mitrahub/internal/shared"
)

// SalesSource lists raw sales records.
type SalesSource interface {
	List(ctx context.Context, filter sales.ListFilter) ([]sales.Record, error)
}

// RevenueSource reports delivered restock revenue per month. To is inclusive.
type RevenueSource interface {
	DeliveredRevenue(ctx context.Context, from, to time.Time) ([]RevenuePoint, error)
}

// Service builds finance reports.
type Service struct {
	sales   SalesSource
	revenue RevenueSource
	now     func() time.Time
}

// NewService builds Service.
func NewService(salesSource SalesSource, revenue RevenueSource) *Service {
	return &Service{sales: salesSource, revenue: revenue, now: time.Now}
}

// Report summarises the period. Zero bounds default to the current month up
// to today. Restock revenue is company wide and ignores outletID.
func (s *Service) Report(ctx context.Context, from, to time.Time, outletID int64) (Report, error) {
	monthStart, today := shared.MonthToDate(s.now())
	if from.IsZero() {
		from = monthStart
	}
	if to.IsZero() {
		to = today
	}
	if to.Before(from) {
		return Report{}, &httpx.ValidationError{Fields: map[string]string{"to": "must not be before from"}}
	}
	rows, err := s.sales.List(ctx, sales.ListFilter{From: from, To: to, OutletID: outletID})
	if err != nil {
		return Report{}, err
	}
	revenue, err := s.revenue.DeliveredRevenue(ctx, from, to)
	if err != nil {
		return Report{}, err
	}

	report := Report{From: from, To: to, OutletID: outletID, Outlets: []OutletBreakdown{}}
	report.Totals = totalsOf(sales.Total(rows))
	byOutlet := map[int64][]sales.Record{}
	names := map[int64]string{}
	for _, r := range rows {
		byOutlet[r.OutletID] = append(byOutlet[r.OutletID], r)
		names[r.OutletID] = r.OutletName
	}
	for id, outletRows := range byOutlet {
		report.Outlets = append(report.Outlets, OutletBreakdown{
			OutletID:   id,
			OutletName: names[id],
			Totals:     totalsOf(sales.Total(outletRows)),
		})
	}
	sort.Slice(report.Outlets, func(i, j int) bool {
		if report.Outlets[i].NetIncome == report.Outlets[j].NetIncome {
			return report.Outlets[i].OutletID < report.Outlets[j].OutletID
		}
		return report.Outlets[i].NetIncome > report.Outlets[j].NetIncome
	})

	months := map[string]*MonthPoint{}
	for _, g := range sales.Aggregate(rows, sales.PeriodMonthly) {
		months[g.Key] = &MonthPoint{Month: g.Key, Label: g.Label, CashIn: g.CashIn, CashOut: g.CashOut, NetIncome: g.NetIncome}
	}
	for _, p := range revenue {
		report.RestockRevenue += p.Revenue
		report.RestockOrders += p.Orders
		m, ok := months[p.Month]
		if !ok {
			m = &MonthPoint{Month: p.Month, Label: format.MonthLabel(p.Month)}
			months[p.Month] = m
		}
		m.RestockRevenue += p.Revenue
	}
	report.RestockRevenueLabel = format.Rupiah(report.RestockRevenue)
	report.Monthly = make([]MonthPoint, 0, len(months))
	for _, m := range months {
		report.Monthly = append(report.Monthly, *m)
	}
	sort.Slice(report.Monthly, func(i, j int) bool { return report.Monthly[i].Month < report.Monthly[j].Month })
	return report, nil
}

func totalsOf(g sales.Group) Totals {
	return Totals{
		CashIn:         g.CashIn,
		CashValue:      g.CashValue,
		QrisValue:      g.QrisValue,
		CashOut:        g.CashOut,
		NetIncome:      g.NetIncome,
		NetIncomeLabel: g.NetIncomeLabel,
		Transactions:   g.Transactions,
	}
}
