// Package format holds presentation helpers shared by API responses and exports:
// Rupiah amounts, Indonesian dates, category labels and badge tones.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah renders amount as "Rp 1.250.000", rounding to whole rupiah.
func Rupiah(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return "-Rp " + idPrinter.Sprintf("%d", -rounded)
	}
	return "Rp " + idPrinter.Sprintf("%d", rounded)
}

// Number renders n with Indonesian thousands separators.
func Number(n float64) string {
	if n == math.Trunc(n) {
		return idPrinter.Sprintf("%d", int64(n))
	}
	return idPrinter.Sprintf("%.2f", n)
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var shortMonths = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

var weekdays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// Date renders t as "16 Oktober 2026".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// ShortDate renders t as "16 Okt 2026".
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// LongDate renders t as "Jumat, 16 Oktober 2026".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return weekdays[t.Weekday()] + ", " + Date(t)
}

// MonthLabel renders a "2026-10" period as "Oktober 2026".
func MonthLabel(period string) string {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return period
	}
	return months[t.Month()-1] + " " + strconv.Itoa(t.Year())
}
