package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cedar-analytics/traffic-cli/internal/geo"
	"github.com/cedar-analytics/traffic-cli/internal/ingest"
)

var (
	importCSV        string
	importBoundaries string
	importColumnMap  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a probe CSV into the traffic table",
	Long: `Streams a CSV of GPS probe points, classifies each point into a
governorate by polygon containment, and bulk-loads the batch in a single
transaction. Either every row is inserted or none are.

Examples:
  # Import with config defaults
  traffic-cli import

  # Explicit paths
  traffic-cli import --csv data/sample_data.csv --boundaries data/lebanon-governorates.geojson`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		csvPath := importCSV
		if csvPath == "" {
			csvPath = cfg.Ingest.CSVPath
		}
		boundaryPath := importBoundaries
		if boundaryPath == "" {
			boundaryPath = cfg.Geo.BoundaryPath
		}

		boundaries, err := geo.Load(boundaryPath, cfg.Geo.NameProperty)
		if err != nil {
			return err
		}

		columns := ingest.ColumnMap(nil)
		mapPath := importColumnMap
		if mapPath == "" {
			mapPath = cfg.Ingest.ColumnMapPath
		}
		if mapPath != "" {
			columns, err = ingest.LoadColumnMap(mapPath)
			if err != nil {
				return err
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		result, err := ingest.New(st, boundaries, columns).Run(ctx, csvPath)
		if err != nil {
			return err
		}

		zap.L().Info("import finished",
			zap.String("run_id", result.RunID),
			zap.Int("parsed", result.Parsed),
			zap.Int64("inserted", result.Inserted),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSV, "csv", "", "path to probe CSV (default from config)")
	importCmd.Flags().StringVar(&importBoundaries, "boundaries", "", "path to governorate boundary file, .geojson or .shp (default from config)")
	importCmd.Flags().StringVar(&importColumnMap, "column-map", "", "optional YAML column-map override")
	rootCmd.AddCommand(importCmd)
}
