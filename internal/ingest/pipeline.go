package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cedar-analytics/traffic-cli/internal/geo"
	"github.com/cedar-analytics/traffic-cli/internal/model"
	"github.com/cedar-analytics/traffic-cli/internal/store"
)

// Pipeline is the one-shot CSV import: parse, classify, bulk-load.
type Pipeline struct {
	store      store.Store
	boundaries *geo.BoundarySet
	columns    ColumnMap
}

// New builds a Pipeline. A nil columns map falls back to the default.
func New(st store.Store, boundaries *geo.BoundarySet, columns ColumnMap) *Pipeline {
	if columns == nil {
		columns = DefaultColumnMap()
	}
	return &Pipeline{store: st, boundaries: boundaries, columns: columns}
}

// Result summarizes a completed import run.
type Result struct {
	RunID    string
	Parsed   int
	Inserted int64
}

// Run streams the CSV at csvPath to completion and persists all rows as one
// transactional batch. A missing source file fails before the store is
// touched; row-level field errors only degrade the affected fields; any
// insert error rolls back the entire batch.
func (p *Pipeline) Run(ctx context.Context, csvPath string) (*Result, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("component", "ingest"), zap.String("run_id", runID))

	file, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", csvPath)
	}
	defer file.Close() //nolint:errcheck

	records, err := p.parse(ctx, file)
	if err != nil {
		return nil, err
	}
	log.Info("csv parsed", zap.Int("rows", len(records)))

	inserted, err := p.store.InsertTraffic(ctx, records)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: insert batch")
	}

	log.Info("import complete", zap.Int64("rows", inserted))
	return &Result{RunID: runID, Parsed: len(records), Inserted: inserted}, nil
}

// parse reads the header, resolves the column map once, then streams the
// remaining rows through a reader goroutine while the consumer normalizes.
func (p *Pipeline) parse(ctx context.Context, r io.Reader) ([]model.TrafficRecord, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read CSV header")
	}
	cols := p.columns.Resolve(header)

	rowCh := make(chan []string, 64)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rowCh)
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// Malformed line: degrade, don't abort the run.
				zap.L().Warn("ingest: skipping malformed CSV line", zap.Error(err))
				continue
			}
			select {
			case rowCh <- record:
			case <-gctx.Done():
				return eris.Wrap(gctx.Err(), "ingest: cancelled")
			}
		}
	})

	var records []model.TrafficRecord
	g.Go(func() error {
		for record := range rowCh {
			records = append(records, p.normalizeRow(cols, record))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// normalizeRow applies the per-row transformation order: coordinates, date,
// time, course/velocity, osm id, then governorate classification. Field
// failures yield nil fields, never a dropped row.
func (p *Pipeline) normalizeRow(cols Columns, record []string) model.TrafficRecord {
	lon, lat := parseCoordinate(cols.Get(record, FieldCoordinate))

	return model.TrafficRecord{
		Date:     parseDateISO(cols.Get(record, FieldDate)),
		Time:     strPtr(cols.Get(record, FieldTime)),
		Lon:      lon,
		Lat:      lat,
		Course:   parseFloatPtr(cols.Get(record, FieldCourse)),
		Velocity: parseFloatPtr(cols.Get(record, FieldVelocity)),
		OSMID:    strPtr(cols.Get(record, FieldOSMID)),
		State:    p.boundaries.Classify(lat, lon),
	}
}
