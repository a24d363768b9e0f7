package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
	"github.com/mitrahub/mitrahub/internal/sales"
)

type salesStub []sales.Record

func (s salesStub) List(ctx context.Context, filter sales.ListFilter) ([]sales.Record, error) {
	var out []sales.Record
	for _, r := range s {
		if filter.OutletID > 0 && r.OutletID != filter.OutletID {
			continue
		}
		if r.Date.Before(filter.From) || r.Date.After(filter.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type revenueStub []RevenuePoint

func (r revenueStub) DeliveredRevenue(ctx context.Context, from, to time.Time) ([]RevenuePoint, error) {
	return r, nil
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestService() *Service {
	records := salesStub{
		{Date: date("2026-09-20"), OutletID: 1, OutletName: "Dago", CashValue: 300000, QrisValue: 200000, CashOut: 50000},
		{Date: date("2026-10-02"), OutletID: 1, OutletName: "Dago", CashIn: 400000, CashOut: 100000},
		{Date: date("2026-10-05"), OutletID: 2, OutletName: "Braga", CashValue: 900000, CashOut: 100000},
	}
	revenue := revenueStub{{Month: "2026-10", Revenue: 750000, Orders: 3}, {Month: "2026-11", Revenue: 10000, Orders: 1}}
	svc := NewService(records, revenue)
	svc.now = func() time.Time { return time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestReportTotalsAndBreakdown(t *testing.T) {
	svc := newTestService()

	report, err := svc.Report(context.Background(), date("2026-09-01"), date("2026-10-31"), 0)
	require.NoError(t, err)
	require.Equal(t, 1800000.0, report.Totals.CashIn)
	require.Equal(t, 1550000.0, report.Totals.NetIncome)
	require.Equal(t, 3, report.Totals.Transactions)
	require.Len(t, report.Outlets, 2)
	require.Equal(t, "Braga", report.Outlets[0].OutletName)
	require.Equal(t, 800000.0, report.Outlets[0].NetIncome)
	require.Equal(t, 750000.0, report.Outlets[1].NetIncome)
	require.Equal(t, 760000.0, report.RestockRevenue)
	require.Equal(t, 4, report.RestockOrders)

	require.Len(t, report.Monthly, 3)
	require.Equal(t, "2026-09", report.Monthly[0].Month)
	require.Equal(t, 450000.0, report.Monthly[0].NetIncome)
	require.Equal(t, 1100000.0, report.Monthly[1].NetIncome)
	require.Equal(t, 750000.0, report.Monthly[1].RestockRevenue)
	require.Equal(t, "November 2026", report.Monthly[2].Label)
}

func TestReportDefaultsToCurrentMonth(t *testing.T) {
	report, err := newTestService().Report(context.Background(), time.Time{}, time.Time{}, 1)
	require.NoError(t, err)
	require.Equal(t, date("2026-10-01"), report.From)
	require.Equal(t, date("2026-10-16"), report.To)
	require.Equal(t, 1, report.Totals.Transactions)
	require.Equal(t, 300000.0, report.Totals.NetIncome)

	_, err = newTestService().Report(context.Background(), date("2026-10-10"), date("2026-10-01"), 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestReportDefaultRangeUsesBusinessDay(t *testing.T) {
	svc := newTestService()
	// 18:30 UTC on Oct 31 is 01:30 on Nov 1 in Jakarta.
	svc.now = func() time.Time { return time.Date(2026, time.October, 31, 18, 30, 0, 0, time.UTC) }
	report, err := svc.Report(context.Background(), time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	require.Equal(t, date("2026-11-01"), report.From)
	require.Equal(t, date("2026-11-01"), report.To)
}

func TestOutletBreakdownSumsToTotals(t *testing.T) {
	report, err := newTestService().Report(context.Background(), date("2026-09-01"), date("2026-10-31"), 0)
	require.NoError(t, err)
	var net float64
	var count int
	for _, o := range report.Outlets {
		net += o.NetIncome
		count += o.Transactions
		require.NotEmpty(t, o.NetIncomeLabel)
	}
	require.Equal(t, report.Totals.NetIncome, net)
	require.Equal(t, report.Totals.Transactions, count)
}

func TestWriteCSV(t *testing.T) {
	report, err := newTestService().Report(context.Background(), date("2026-09-01"), date("2026-10-31"), 0)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, report))
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Pendapatan Bersih", "1550000.00"}, records[6])
	require.Contains(t, buf.String(), "Braga,900000.00")
}

func TestWriteXLSX(t *testing.T) {
	report, err := newTestService().Report(context.Background(), date("2026-09-01"), date("2026-10-31"), 0)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, report))
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.Equal(t, []string{sheetSummary, sheetOutlets, sheetMonthly}, f.GetSheetList())
	value, err := f.GetCellValue(sheetOutlets, "A2")
	require.NoError(t, err)
	require.Equal(t, "Braga", value)
	rows, err := f.GetRows(sheetMonthly)
	require.NoError(t, err)
	require.Len(t, rows, 4)
}

func TestExportEndpoint(t *testing.T) {
	h := NewHandler(nil, newTestService())
	r := chi.NewRouter()
	r.Route("/finance", h.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/finance/export?format=xlsx&from=2026-10-01&to=2026-10-31", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, contentTypeXLSX, rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "laporan-keuangan-20261001-20261031.xlsx")

	req = httptest.NewRequest(http.MethodGet, "/finance/export?format=pdf", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
