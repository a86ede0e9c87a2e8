package analytics

import "time"

// Filter is the dashboard filter state. Unset fields pass everything;
// set fields are inclusive bounds combined with AND semantics. SpeedMin >
// SpeedMax is not rejected, it simply matches nothing.
type Filter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	SpeedMin    *int
	SpeedMax    *int
	Governorate string
}

// Apply returns the rows matching the filter, preserving input order.
func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (f Filter) matches(row Row) bool {
	if f.StartDate != nil || f.EndDate != nil {
		if row.Timestamp == nil {
			return false
		}
		if f.StartDate != nil && row.Timestamp.Before(*f.StartDate) {
			return false
		}
		if f.EndDate != nil && row.Timestamp.After(*f.EndDate) {
			return false
		}
	}

	if f.SpeedMin != nil && row.Speed < *f.SpeedMin {
		return false
	}
	if f.SpeedMax != nil && row.Speed > *f.SpeedMax {
		return false
	}

	if f.Governorate != "" && row.Governorate != f.Governorate {
		return false
	}

	return true
}
