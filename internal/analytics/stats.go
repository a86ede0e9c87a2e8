package analytics

import (
	"math"
	"sort"
	"strconv"
)

// bucketCount is the fixed number of histogram buckets.
const bucketCount = 10

// Summary holds min/max/average speed over a filtered set. An empty set
// yields zeros and "0.00".
type Summary struct {
	Min          int
	Max          int
	Avg          float64
	AvgFormatted string
	Count        int
}

// Summarize computes summary statistics over the rows' rounded speeds.
func Summarize(rows []Row) Summary {
	if len(rows) == 0 {
		return Summary{AvgFormatted: "0.00"}
	}

	min, max := rows[0].Speed, rows[0].Speed
	var total int
	for _, row := range rows {
		if row.Speed < min {
			min = row.Speed
		}
		if row.Speed > max {
			max = row.Speed
		}
		total += row.Speed
	}

	avg := float64(total) / float64(len(rows))
	return Summary{
		Min:          min,
		Max:          max,
		Avg:          avg,
		AvgFormatted: formatAvg(avg),
		Count:        len(rows),
	}
}

// Bucket is one histogram interval [From, From+width) and its count; the
// last bucket also absorbs the maximum value.
type Bucket struct {
	From  int
	Width int
	Count int
}

// Histogram buckets the rows' speeds into bucketCount equal-width intervals
// spanning [min, max]. Width is ceil((max-min)/10) with a minimum of 1; a
// value's bucket is floor((value-min)/width), clamped to the last bucket.
// An empty input yields nil.
func Histogram(rows []Row) []Bucket {
	if len(rows) == 0 {
		return nil
	}

	s := Summarize(rows)
	width := int(math.Ceil(float64(s.Max-s.Min) / bucketCount))
	if width < 1 {
		width = 1
	}

	buckets := make([]Bucket, bucketCount)
	for i := range buckets {
		buckets[i] = Bucket{From: s.Min + i*width, Width: width}
	}

	for _, row := range rows {
		idx := (row.Speed - s.Min) / width
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}

	return buckets
}

// GovernorateStat is one row of the per-governorate ranking.
type GovernorateStat struct {
	Governorate  string
	Avg          float64
	AvgFormatted string
	Count        int
}

// RankGovernorates groups rows by governorate, averages the speeds per
// group, and sorts descending by average. The sort is stable, so ties keep
// first-appearance order.
func RankGovernorates(rows []Row) []GovernorateStat {
	type agg struct {
		total int
		count int
	}

	var order []string
	groups := make(map[string]*agg)
	for _, row := range rows {
		g, ok := groups[row.Governorate]
		if !ok {
			g = &agg{}
			groups[row.Governorate] = g
			order = append(order, row.Governorate)
		}
		g.total += row.Speed
		g.count++
	}

	stats := make([]GovernorateStat, 0, len(order))
	for _, name := range order {
		g := groups[name]
		avg := float64(g.total) / float64(g.count)
		stats = append(stats, GovernorateStat{
			Governorate:  name,
			Avg:          avg,
			AvgFormatted: formatAvg(avg),
			Count:        g.count,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Avg > stats[j].Avg
	})
	return stats
}

// Governorates returns the distinct governorate names present, sorted.
func Governorates(rows []Row) []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		if !seen[row.Governorate] {
			seen[row.Governorate] = true
			names = append(names, row.Governorate)
		}
	}
	sort.Strings(names)
	return names
}

func formatAvg(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
