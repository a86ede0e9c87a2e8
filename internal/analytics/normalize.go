// Package analytics is the dashboard's data layer: it normalizes fetched
// records into display rows and computes filters and aggregates client-side.
package analytics

import (
	"math"
	"time"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// Row is the display shape of one traffic record: the raw record plus the
// derived timestamp and rounded speed the filters operate on.
type Row struct {
	Record      model.TrafficRecord
	Timestamp   *time.Time
	Speed       int
	Governorate string
}

// timestampLayouts are tried when combining the date and free-text time
// fields into a single instant.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
}

// Normalize converts fetched records into display rows. A nil velocity
// rounds to speed 0, matching the reference display shape; a nil date
// leaves the timestamp unset.
func Normalize(records []model.TrafficRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		row := Row{Record: r, Governorate: r.State}
		if row.Governorate == "" {
			row.Governorate = model.StateUnspecified
		}
		if r.Velocity != nil {
			row.Speed = int(math.Round(*r.Velocity))
		}
		row.Timestamp = parseTimestamp(r.Date, r.Time)
		rows = append(rows, row)
	}
	return rows
}

func parseTimestamp(date, clock *string) *time.Time {
	if date == nil {
		return nil
	}
	if clock != nil {
		combined := *date + " " + *clock
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, combined); err == nil {
				return &t
			}
		}
	}
	if t, err := time.Parse("2006-01-02", *date); err == nil {
		return &t
	}
	return nil
}
