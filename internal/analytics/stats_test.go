package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsWithSpeeds(speeds ...int) []Row {
	rows := make([]Row, len(speeds))
	for i, s := range speeds {
		rows[i] = Row{Speed: s, Governorate: "Beirut"}
	}
	return rows
}

func TestSummarize(t *testing.T) {
	s := Summarize(rowsWithSpeeds(10, 20, 30, 40, 50))
	assert.Equal(t, 10, s.Min)
	assert.Equal(t, 50, s.Max)
	assert.Equal(t, "30.00", s.AvgFormatted)
	assert.Equal(t, 5, s.Count)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Min)
	assert.Equal(t, 0, s.Max)
	assert.Equal(t, "0.00", s.AvgFormatted)
	assert.Equal(t, 0, s.Count)
}

func TestHistogramFixedBuckets(t *testing.T) {
	buckets := Histogram(rowsWithSpeeds(0, 5, 10, 15, 95, 100))
	require.Len(t, buckets, 10)

	for _, b := range buckets {
		assert.Equal(t, 10, b.Width)
	}

	// Bucket 0 spans [0,10): {0, 5}. Bucket 1 spans [10,20): {10, 15}.
	// Bucket 9 absorbs the maximum: {95, 100}.
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 2, buckets[1].Count)
	assert.Equal(t, 2, buckets[9].Count)

	var total int
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, 6, total)
}

func TestHistogramMinimumWidth(t *testing.T) {
	// All identical speeds: width clamps to 1, everything in bucket 0.
	buckets := Histogram(rowsWithSpeeds(7, 7, 7))
	require.Len(t, buckets, 10)
	assert.Equal(t, 1, buckets[0].Width)
	assert.Equal(t, 3, buckets[0].Count)
}

func TestHistogramEmpty(t *testing.T) {
	assert.Nil(t, Histogram(nil))
}

func TestRankGovernorates(t *testing.T) {
	rows := []Row{
		{Speed: 10, Governorate: "A"},
		{Speed: 20, Governorate: "A"},
		{Speed: 30, Governorate: "B"},
	}

	stats := RankGovernorates(rows)
	require.Len(t, stats, 2)

	assert.Equal(t, "B", stats[0].Governorate)
	assert.Equal(t, "30.00", stats[0].AvgFormatted)
	assert.Equal(t, 1, stats[0].Count)

	assert.Equal(t, "A", stats[1].Governorate)
	assert.Equal(t, "15.00", stats[1].AvgFormatted)
	assert.Equal(t, 2, stats[1].Count)
}

func TestRankGovernoratesStableTies(t *testing.T) {
	rows := []Row{
		{Speed: 20, Governorate: "South"},
		{Speed: 20, Governorate: "North"},
	}

	stats := RankGovernorates(rows)
	require.Len(t, stats, 2)
	// Equal averages keep first-appearance order.
	assert.Equal(t, "South", stats[0].Governorate)
	assert.Equal(t, "North", stats[1].Governorate)
}

func TestGovernorates(t *testing.T) {
	rows := []Row{
		{Governorate: "Beirut"},
		{Governorate: "Akkar"},
		{Governorate: "Beirut"},
	}
	assert.Equal(t, []string{"Akkar", "Beirut"}, Governorates(rows))
}
