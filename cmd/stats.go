package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/cedar-analytics/traffic-cli/internal/analytics"
	"github.com/cedar-analytics/traffic-cli/pkg/apiclient"
)

var (
	statsBaseURL     string
	statsUsername    string
	statsPassword    string
	statsToken       string
	statsLimit       int
	statsStartDate   string
	statsEndDate     string
	statsMinSpeed    int
	statsMaxSpeed    int
	statsGovernorate string
	statsXLSX        string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetch records and print dashboard statistics",
	Long: `Fetches a page of traffic records from a running API server, applies
the dashboard filters client-side, and prints summary statistics, a speed
histogram, and the per-governorate ranking.

Examples:
  traffic-cli stats --base-url http://localhost:4000 --username admin --password secret
  traffic-cli stats --token "$TOKEN" --min-speed 20 --max-speed 40 --xlsx report.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := buildFilter()
		if err != nil {
			return err
		}

		var opts []apiclient.Option
		if statsToken != "" {
			opts = append(opts, apiclient.WithToken(statsToken))
		}
		client := apiclient.New(statsBaseURL, opts...)

		if statsToken == "" {
			if statsUsername == "" || statsPassword == "" {
				return eris.New("stats: provide --token or --username/--password")
			}
			if _, err := client.Login(ctx, statsUsername, statsPassword); err != nil {
				return err
			}
		}

		records, err := client.FetchData(ctx, statsLimit)
		if err != nil {
			return err
		}
		zap.L().Info("records fetched", zap.Int("count", len(records)))

		rows := filter.Apply(analytics.Normalize(records))
		printStats(rows)

		if statsXLSX != "" {
			if err := exportXLSX(rows, statsXLSX); err != nil {
				return err
			}
			zap.L().Info("xlsx written", zap.String("path", statsXLSX))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsBaseURL, "base-url", "http://localhost:4000", "API server base URL")
	statsCmd.Flags().StringVar(&statsUsername, "username", "", "login username")
	statsCmd.Flags().StringVar(&statsPassword, "password", "", "login password")
	statsCmd.Flags().StringVar(&statsToken, "token", "", "pre-issued session token (skips login)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "max records to fetch (0 = server default)")
	statsCmd.Flags().StringVar(&statsStartDate, "start-date", "", "filter: earliest date, YYYY-MM-DD")
	statsCmd.Flags().StringVar(&statsEndDate, "end-date", "", "filter: latest date, YYYY-MM-DD")
	statsCmd.Flags().IntVar(&statsMinSpeed, "min-speed", -1, "filter: minimum rounded speed")
	statsCmd.Flags().IntVar(&statsMaxSpeed, "max-speed", -1, "filter: maximum rounded speed")
	statsCmd.Flags().StringVar(&statsGovernorate, "governorate", "", "filter: exact governorate name")
	statsCmd.Flags().StringVar(&statsXLSX, "xlsx", "", "write filtered records and stats to an XLSX file")
	rootCmd.AddCommand(statsCmd)
}

func buildFilter() (analytics.Filter, error) {
	var f analytics.Filter

	if statsStartDate != "" {
		t, err := time.Parse("2006-01-02", statsStartDate)
		if err != nil {
			return f, eris.Wrapf(err, "stats: bad --start-date %q", statsStartDate)
		}
		f.StartDate = &t
	}
	if statsEndDate != "" {
		t, err := time.Parse("2006-01-02", statsEndDate)
		if err != nil {
			return f, eris.Wrapf(err, "stats: bad --end-date %q", statsEndDate)
		}
		// Inclusive end of day.
		t = t.Add(24*time.Hour - time.Second)
		f.EndDate = &t
	}
	if statsMinSpeed >= 0 {
		f.SpeedMin = &statsMinSpeed
	}
	if statsMaxSpeed >= 0 {
		f.SpeedMax = &statsMaxSpeed
	}
	f.Governorate = statsGovernorate

	return f, nil
}

func printStats(rows []analytics.Row) {
	summary := analytics.Summarize(rows)
	fmt.Printf("records: %d\n", summary.Count)
	fmt.Printf("speed:   min=%d max=%d avg=%s\n", summary.Min, summary.Max, summary.AvgFormatted)

	buckets := analytics.Histogram(rows)
	if len(buckets) > 0 {
		fmt.Println("\nhistogram:")
		for _, b := range buckets {
			fmt.Printf("  [%4d..%4d) %5d %s\n", b.From, b.From+b.Width, b.Count, strings.Repeat("#", bar(b.Count, summary.Count)))
		}
	}

	ranking := analytics.RankGovernorates(rows)
	if len(ranking) > 0 {
		fmt.Println("\ngovernorates by average speed:")
		for i, g := range ranking {
			fmt.Printf("  %2d. %-20s avg=%s n=%d\n", i+1, g.Governorate, g.AvgFormatted, g.Count)
		}
	}
}

// bar scales a bucket count to at most 40 hash marks.
func bar(count, total int) int {
	if total == 0 {
		return 0
	}
	n := count * 40 / total
	if n == 0 && count > 0 {
		n = 1
	}
	return n
}

func exportXLSX(rows []analytics.Row, path string) error {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Records")
	if err != nil {
		return eris.Wrap(err, "stats: add records sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{"ID", "Date", "Time", "Lon", "Lat", "Course", "Velocity", "OSM ID", "Governorate", "Speed"} {
		header.AddCell().Value = name
	}

	for _, row := range rows {
		r := row.Record
		out := sheet.AddRow()
		out.AddCell().SetInt64(r.ID)
		out.AddCell().Value = strDeref(r.Date)
		out.AddCell().Value = strDeref(r.Time)
		addFloatCell(out, r.Lon)
		addFloatCell(out, r.Lat)
		addFloatCell(out, r.Course)
		addFloatCell(out, r.Velocity)
		out.AddCell().Value = strDeref(r.OSMID)
		out.AddCell().Value = row.Governorate
		out.AddCell().SetInt(row.Speed)
	}

	ranking, err := file.AddSheet("Governorates")
	if err != nil {
		return eris.Wrap(err, "stats: add governorates sheet")
	}
	rh := ranking.AddRow()
	for _, name := range []string{"Governorate", "Average Speed", "Count"} {
		rh.AddCell().Value = name
	}
	for _, g := range analytics.RankGovernorates(rows) {
		out := ranking.AddRow()
		out.AddCell().Value = g.Governorate
		out.AddCell().SetFloatWithFormat(g.Avg, "0.00")
		out.AddCell().SetInt(g.Count)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "stats: save %s", path)
	}
	return nil
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func addFloatCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}
