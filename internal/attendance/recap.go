package attendance

import (
	"math"
	"sort"
)

// Summarize counts statuses per user, ordered by user name.
func Summarize(records []Record) []RecapRow {
	byUser := map[int64]*RecapRow{}
	for _, r := range records {
		row, ok := byUser[r.UserID]
		if !ok {
			row = &RecapRow{UserID: r.UserID, UserName: r.UserName}
			byUser[r.UserID] = row
		}
		switch r.Status {
		case StatusHadir:
			row.Hadir++
		case StatusIzin:
			row.Izin++
		case StatusSakit:
			row.Sakit++
		case StatusAlpha:
			row.Alpha++
		}
		row.Total++
		row.WorkHours += workHours(r)
	}
	out := make([]RecapRow, 0, len(byUser))
	for _, row := range byUser {
		row.WorkHours = math.Round(row.WorkHours*100) / 100
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserName == out[j].UserName {
			return out[i].UserID < out[j].UserID
		}
		return out[i].UserName < out[j].UserName
	})
	return out
}

func workHours(r Record) float64 {
	if r.CheckIn == nil || r.CheckOut == nil || !r.CheckOut.After(*r.CheckIn) {
		return 0
	}
	return math.Round(r.CheckOut.Sub(*r.CheckIn).Hours()*100) / 100
}
