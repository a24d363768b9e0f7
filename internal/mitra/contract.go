package mitra

import (
	"math"
	"strconv"
	"time"

	"github.com/mitrahub/mitrahub/internal/format"
)

const (
	// ContractMonths is the fixed partnership term.
	ContractMonths = 24
	// DaysPerMonth is the month length used for contract arithmetic.
	DaysPerMonth = 30
)

const day = 24 * time.Hour

// ContractEnd returns startDate plus the term of ContractMonths × DaysPerMonth days.
func ContractEnd(start time.Time) time.Time {
	return startOfDay(start).Add(ContractMonths * DaysPerMonth * day)
}

// MonthsRemaining returns ceil((ContractEnd(start) - now) / 30 days), never negative.
func MonthsRemaining(start, now time.Time) int {
	remaining := ContractEnd(start).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining) / float64(DaysPerMonth*day)))
}

// ContractTier classifies the remaining term.
type ContractTier string

const (
	TierEnded  ContractTier = "ended"
	TierUrgent ContractTier = "urgent"
	TierSoon   ContractTier = "soon"
	TierOK     ContractTier = "ok"
)

// TierFor maps remaining months to a tier.
func TierFor(months int) ContractTier {
	switch {
	case months <= 0:
		return TierEnded
	case months <= 3:
		return TierUrgent
	case months <= 6:
		return TierSoon
	default:
		return TierOK
	}
}

// ContractBadge returns the countdown badge, e.g. green "14 bulan lagi".
func ContractBadge(months int) format.Badge {
	switch TierFor(months) {
	case TierEnded:
		return format.NewBadge("Selesai", format.ToneGray)
	case TierUrgent:
		return format.NewBadge(strconv.Itoa(months)+" bulan lagi", format.ToneRed)
	case TierSoon:
		return format.NewBadge(strconv.Itoa(months)+" bulan lagi", format.ToneAmber)
	default:
		return format.NewBadge(strconv.Itoa(months)+" bulan lagi", format.ToneGreen)
	}
}

// NextPayoutDate returns the first date on or after today whose day of month
// equals payoutDay. payoutDay is limited to 1..28 so every month has it.
func NextPayoutDate(payoutDay int, today time.Time) time.Time {
	today = startOfDay(today)
	candidate := time.Date(today.Year(), today.Month(), payoutDay, 0, 0, 0, 0, today.Location())
	if candidate.Before(today) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
