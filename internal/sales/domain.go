package sales

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Record is one day of takings reported for an outlet.
type Record struct {
	ID             int64     `json:"id"`
	Date           time.Time `json:"date"`
	DateLabel      string    `json:"dateLabel"`
	OutletID       int64     `json:"outletId"`
	OutletName     string    `json:"outletName"`
	CashIn         float64   `json:"cashIn"`
	CashValue      float64   `json:"cashValue"`
	QrisValue      float64   `json:"qrisValue"`
	CashOut        float64   `json:"cashOut"`
	NetIncome      float64   `json:"netIncome"`
	NetIncomeLabel string    `json:"netIncomeLabel"`
	Note           string    `json:"note"`
	RecordedBy     int64     `json:"recordedBy"`
	RecordedByName string    `json:"recordedByName"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Input is the create/replace payload. Date uses YYYY-MM-DD.
type Input struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	OutletID  int64   `json:"outletId" validate:"required,gt=0"`
	CashIn    float64 `json:"cashIn" validate:"gte=0"`
	CashValue float64 `json:"cashValue" validate:"gte=0"`
	QrisValue float64 `json:"qrisValue" validate:"gte=0"`
	CashOut   float64 `json:"cashOut" validate:"gte=0"`
	Note      string  `json:"note" validate:"max=500"`
}

// ListFilter narrows record listings. Zero values are ignored; To is inclusive.
type ListFilter struct {
	From       time.Time
	To         time.Time
	OutletID   int64
	RecordedBy int64
}

// Period selects the aggregation granularity.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period name, defaulting to monthly.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case "":
		return PeriodMonthly, nil
	case PeriodWeekly, PeriodMonthly:
		return Period(raw), nil
	default:
		return "", &httpx.ValidationError{Fields: map[string]string{"period": "must be one of: weekly monthly"}}
	}
}

// Group is an aggregated bucket of records.
type Group struct {
	Key            string    `json:"key"`
	Label          string    `json:"label"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	CashIn         float64   `json:"cashIn"`
	CashValue      float64   `json:"cashValue"`
	QrisValue      float64   `json:"qrisValue"`
	CashOut        float64   `json:"cashOut"`
	NetIncome      float64   `json:"netIncome"`
	NetIncomeLabel string    `json:"netIncomeLabel"`
	Transactions   int       `json:"transactions"`
}

// Summary is the cached aggregation payload.
type Summary struct {
	Period   Period    `json:"period"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	OutletID int64     `json:"outletId,omitempty"`
	Groups   []Group   `json:"groups"`
	Totals   Group     `json:"totals"`
}

// ErrRecordNotFound is returned for unknown record IDs.
var ErrRecordNotFound = fmt.Errorf("data penjualan tidak ditemukan: %w", httpx.ErrNotFound)
