package shared

import "time"

// BusinessLocation is the zone that decides which calendar day a moment
// belongs to. Falls back to a fixed WIB offset when tzdata is missing.
func BusinessLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// BusinessDay returns the business calendar day of t as UTC midnight, the
// form DATE columns are compared in.
func BusinessDay(t time.Time) time.Time {
	local := t.In(BusinessLocation())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthToDate returns the first day of the business month of now and the
// business day of now.
func MonthToDate(now time.Time) (time.Time, time.Time) {
	today := BusinessDay(now)
	return today.AddDate(0, 0, 1-today.Day()), today
}
