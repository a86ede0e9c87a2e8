package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

func strP(s string) *string   { return &s }
func f64P(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	records := []model.TrafficRecord{
		{ID: 1, Date: strP("2023-06-15"), Time: strP("08:30:00"), Velocity: f64P(42.6), State: "Beirut"},
		{ID: 2, Velocity: nil, State: ""},
		{ID: 3, Date: strP("2023-06-16"), Velocity: f64P(0.4), State: "Akkar"},
	}

	rows := Normalize(records)
	require.Len(t, rows, 3)

	assert.Equal(t, 43, rows[0].Speed)
	assert.Equal(t, "Beirut", rows[0].Governorate)
	require.NotNil(t, rows[0].Timestamp)
	assert.Equal(t, time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC), *rows[0].Timestamp)

	// Missing velocity displays as speed 0; empty state falls back.
	assert.Equal(t, 0, rows[1].Speed)
	assert.Equal(t, model.StateUnspecified, rows[1].Governorate)
	assert.Nil(t, rows[1].Timestamp)

	assert.Equal(t, 0, rows[2].Speed)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		date  *string
		clock *string
		want  *time.Time
	}{
		{
			"date and time",
			strP("2023-06-15"), strP("14:05:30"),
			timeP(time.Date(2023, 6, 15, 14, 5, 30, 0, time.UTC)),
		},
		{
			"twelve hour clock",
			strP("2023-06-15"), strP("2:05 PM"),
			timeP(time.Date(2023, 6, 15, 14, 5, 0, 0, time.UTC)),
		},
		{
			"date only",
			strP("2023-06-15"), nil,
			timeP(time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			"unparsable clock falls back to date",
			strP("2023-06-15"), strP("around noon"),
			timeP(time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)),
		},
		{"nil date", nil, strP("08:00:00"), nil},
		{"unparsable date", strP("someday"), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.date, tt.clock)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(*tt.want))
		})
	}
}

func timeP(t time.Time) *time.Time { return &t }
