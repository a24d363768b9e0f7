package finance

import "time"

// Totals are summed takings over a set of sales records.
type Totals struct {
	CashIn         float64 `json:"cashIn"`
	CashValue      float64 `json:"cashValue"`
	QrisValue      float64 `json:"qrisValue"`
	CashOut        float64 `json:"cashOut"`
	NetIncome      float64 `json:"netIncome"`
	NetIncomeLabel string  `json:"netIncomeLabel"`
	Transactions   int     `json:"transactions"`
}

// OutletBreakdown is one outlet's share of the period.
type OutletBreakdown struct {
	OutletID   int64  `json:"outletId"`
	OutletName string `json:"outletName"`
	Totals
}

// RevenuePoint is delivered restock revenue of one month.
type RevenuePoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// MonthPoint is one month of the chart series.
type MonthPoint struct {
	Month          string  `json:"month"`
	Label          string  `json:"label"`
	CashIn         float64 `json:"cashIn"`
	CashOut        float64 `json:"cashOut"`
	NetIncome      float64 `json:"netIncome"`
	RestockRevenue float64 `json:"restockRevenue"`
}

// Report is the finance view of a period.
type Report struct {
	From                time.Time         `json:"from"`
	To                  time.Time         `json:"to"`
	OutletID            int64             `json:"outletId,omitempty"`
	Totals              Totals            `json:"totals"`
	Outlets             []OutletBreakdown `json:"outlets"`
	RestockRevenue      float64           `json:"restockRevenue"`
	RestockRevenueLabel string            `json:"restockRevenueLabel"`
	RestockOrders       int               `json:"restockOrders"`
	Monthly             []MonthPoint      `json:"monthly"`
}
