package finance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/mitrahub/mitrahub/internal/format"
)

const (
	sheetSummary = "Ringkasan"
	sheetOutlets = "Per Outlet"
	sheetMonthly = "Bulanan"
)

// WriteCSV emits the report as sectioned CSV.
func WriteCSV(w io.Writer, report Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	records := [][]string{
		{"Laporan Keuangan", format.Date(report.From) + " - " + format.Date(report.To)},
		{"Metrik", "Nilai"},
		{"Kas Masuk", formatFloat(report.Totals.CashIn)},
		{"Tunai", formatFloat(report.Totals.CashValue)},
		{"QRIS", formatFloat(report.Totals.QrisValue)},
		{"Kas Keluar", formatFloat(report.Totals.CashOut)},
		{"Pendapatan Bersih", formatFloat(report.Totals.NetIncome)},
		{"Jumlah Transaksi", strconv.Itoa(report.Totals.Transactions)},
		{"Pendapatan Restock", formatFloat(report.RestockRevenue)},
		{"Order Restock Diterima", strconv.Itoa(report.RestockOrders)},
		{},
		{"Outlet", "Kas Masuk", "Tunai", "QRIS", "Kas Keluar", "Pendapatan Bersih", "Transaksi"},
	}
	for _, o := range report.Outlets {
		records = append(records, []string{
			o.OutletName,
			formatFloat(o.CashIn),
			formatFloat(o.CashValue),
			formatFloat(o.QrisValue),
			formatFloat(o.CashOut),
			formatFloat(o.NetIncome),
			strconv.Itoa(o.Transactions),
		})
	}
	records = append(records, []string{}, []string{"Bulan", "Kas Masuk", "Kas Keluar", "Pendapatan Bersih", "Pendapatan Restock"})
	for _, m := range report.Monthly {
		records = append(records, []string{
			m.Month,
			formatFloat(m.CashIn),
			formatFloat(m.CashOut),
			formatFloat(m.NetIncome),
			formatFloat(m.RestockRevenue),
		})
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX emits the report as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	for _, name := range []string{sheetOutlets, sheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	summary := [][]any{
		{"Metrik", "Nilai"},
		{"Periode", format.Date(report.From) + " - " + format.Date(report.To)},
		{"Kas Masuk", report.Totals.CashIn},
		{"Tunai", report.Totals.CashValue},
		{"QRIS", report.Totals.QrisValue},
		{"Kas Keluar", report.Totals.CashOut},
		{"Pendapatan Bersih", report.Totals.NetIncome},
		{"Jumlah Transaksi", report.Totals.Transactions},
		{"Pendapatan Restock", report.RestockRevenue},
		{"Order Restock Diterima", report.RestockOrders},
	}
	outlets := [][]any{{"Outlet", "Kas Masuk", "Tunai", "QRIS", "Kas Keluar", "Pendapatan Bersih", "Transaksi"}}
	for _, o := range report.Outlets {
		outlets = append(outlets, []any{o.OutletName, o.CashIn, o.CashValue, o.QrisValue, o.CashOut, o.NetIncome, o.Transactions})
	}
	monthly := [][]any{{"Bulan", "Kas Masuk", "Kas Keluar", "Pendapatan Bersih", "Pendapatan Restock"}}
	for _, m := range report.Monthly {
		monthly = append(monthly, []any{m.Label, m.CashIn, m.CashOut, m.NetIncome, m.RestockRevenue})
	}

	for sheet, rows := range map[string][][]any{sheetSummary: summary, sheetOutlets: outlets, sheetMonthly: monthly} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
