package attendance

import (
	"fmt"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
	"github.com/mitrahub/mitrahub/internal/platform/httpx"
)

// Status is the attendance outcome of a day.
type Status string

const (
	StatusHadir Status = "hadir"
	StatusIzin  Status = "izin"
	StatusSakit Status = "sakit"
	StatusAlpha Status = "alpha"
)

// Badge returns the status badge.
func (s Status) Badge() format.Badge {
	switch s {
	case StatusHadir:
		return format.NewBadge("Hadir", format.ToneGreen)
	case StatusIzin:
		return format.NewBadge("Izin", format.ToneBlue)
	case StatusSakit:
		return format.NewBadge("Sakit", format.ToneAmber)
	case StatusAlpha:
		return format.NewBadge("Alpha", format.ToneRed)
	default:
		return format.NewBadge(string(s), format.ToneGray)
	}
}

// Record is one user's attendance for one day.
type Record struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"userId"`
	UserName    string       `json:"userName"`
	Date        time.Time    `json:"date"`
	DateLabel   string       `json:"dateLabel"`
	CheckIn     *time.Time   `json:"checkIn,omitempty"`
	CheckOut    *time.Time   `json:"checkOut,omitempty"`
	WorkHours   float64      `json:"workHours"`
	Status      Status       `json:"status"`
	StatusBadge format.Badge `json:"statusBadge"`
	Note        string       `json:"note"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CheckInput is the optional payload of check-in and check-out.
type CheckInput struct {
	Note string `json:"note" validate:"max=255"`
}

// RecordInput is an admin entry. Times use HH:MM in the business time zone.
type RecordInput struct {
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Status   Status `json:"status" validate:"required,oneof=hadir izin sakit alpha"`
	CheckIn  string `json:"checkIn" validate:"omitempty,datetime=15:04"`
	CheckOut string `json:"checkOut" validate:"omitempty,datetime=15:04"`
	Note     string `json:"note" validate:"max=255"`
}

// ListFilter narrows listings. To is inclusive.
type ListFilter struct {
	UserID int64
	Status Status
	From   time.Time
	To     time.Time
}

// RecapRow counts one user's statuses over a month.
type RecapRow struct {
	UserID    int64   `json:"userId"`
	UserName  string  `json:"userName"`
	Hadir     int     `json:"hadir"`
	Izin      int     `json:"izin"`
	Sakit     int     `json:"sakit"`
	Alpha     int     `json:"alpha"`
	Total     int     `json:"total"`
	WorkHours float64 `json:"workHours"`
}

var (
	// ErrRecordNotFound is returned for unknown attendance records.
	ErrRecordNotFound = fmt.Errorf("data absensi tidak ditemukan: %w", httpx.ErrNotFound)
	// ErrAlreadyRecorded is returned for a second record on the same day.
	ErrAlreadyRecorded = fmt.Errorf("absensi untuk tanggal ini sudah ada: %w", httpx.ErrDuplicate)
	// ErrNotCheckedIn is returned when checking out without a check-in.
	ErrNotCheckedIn = fmt.Errorf("belum melakukan check-in hari ini: %w", httpx.ErrConflict)
	// ErrAlreadyCheckedOut is returned on a second check-out.
	ErrAlreadyCheckedOut = fmt.Errorf("sudah melakukan check-out hari ini: %w", httpx.ErrConflict)
	// ErrCheckOutBeforeCheckIn is returned when the check-out is not after the check-in.
	ErrCheckOutBeforeCheckIn = &httpx.ValidationError{Fields: map[string]string{"checkOut": "must be after checkIn"}}
)
