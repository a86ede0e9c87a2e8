package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/cedar-analytics/traffic-cli/internal/geo"
	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// memStore captures the inserted batch for assertions.
type memStore struct {
	records   []model.TrafficRecord
	insertErr error
}

func (m *memStore) InsertTraffic(_ context.Context, records []model.TrafficRecord) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.records = append(m.records, records...)
	return int64(len(records)), nil
}

func (m *memStore) ListTraffic(context.Context, int) ([]model.TrafficRecord, error) {
	return m.records, nil
}

func (m *memStore) GetUserByUsername(context.Context, string) (*model.UserCredential, error) {
	return nil, nil
}

func (m *memStore) CreateUser(context.Context, string, string) error { return nil }
func (m *memStore) Migrate(context.Context) error                    { return nil }
func (m *memStore) Close() error                                     { return nil }

func testBoundaries() *geo.BoundarySet {
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{35, 33}, {36, 33}, {36, 34}, {35, 34}, {35, 33},
	}})
	return geo.NewBoundarySet([]geo.Boundary{{Name: "Beirut", Geom: poly}})
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPipelineRun(t *testing.T) {
	csv := `Date,Time,Coordinate (lon lat),Course,Velocity,OSM ID
2023-06-15,08:00:00,"35.5, 33.5",180,42.5,way/123
2023-06-16,09:30:00,"40.0, 40.0",90,0,
bad-date,,"not, coords",,,way/456
`
	st := &memStore{}
	p := New(st, testBoundaries(), nil)

	res, err := p.Run(context.Background(), writeCSV(t, csv))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Parsed)
	assert.Equal(t, int64(3), res.Inserted)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, st.records, 3)

	first := st.records[0]
	require.NotNil(t, first.Date)
	assert.Equal(t, "2023-06-15", *first.Date)
	require.NotNil(t, first.Velocity)
	assert.Equal(t, 42.5, *first.Velocity)
	require.NotNil(t, first.OSMID)
	assert.Equal(t, "way/123", *first.OSMID)
	assert.Equal(t, "Beirut", first.State)

	// Outside every boundary, zero velocity kept as zero, empty osm id nil.
	second := st.records[1]
	assert.Equal(t, model.StateUnspecified, second.State)
	require.NotNil(t, second.Velocity)
	assert.Equal(t, 0.0, *second.Velocity)
	assert.Nil(t, second.OSMID)

	// Field failures degrade the fields, never drop the row.
	third := st.records[2]
	assert.Nil(t, third.Date)
	assert.Nil(t, third.Lon)
	assert.Nil(t, third.Lat)
	assert.Equal(t, model.StateUnspecified, third.State)
}

func TestPipelineRunMissingFile(t *testing.T) {
	st := &memStore{}
	p := New(st, testBoundaries(), nil)

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	// The store is never touched when the source cannot be opened.
	assert.Empty(t, st.records)
}

func TestPipelineRunInsertError(t *testing.T) {
	csv := "Date,Time,Coordinate,Course,Velocity,OSM ID\n2023-06-15,08:00,\"35.5, 33.5\",0,10,x\n"
	st := &memStore{insertErr: eris.New("constraint violation")}
	p := New(st, testBoundaries(), nil)

	_, err := p.Run(context.Background(), writeCSV(t, csv))
	assert.Error(t, err)
}

func TestPipelineCustomColumnMap(t *testing.T) {
	cm := ColumnMap{
		FieldCoordinate: {Substring: "position"},
		FieldVelocity:   {Headers: []string{"Speed"}},
	}
	csv := "Position,Speed\n\"35.5, 33.5\",77\n"

	st := &memStore{}
	p := New(st, testBoundaries(), cm)

	res, err := p.Run(context.Background(), writeCSV(t, csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Parsed)

	require.Len(t, st.records, 1)
	r := st.records[0]
	require.NotNil(t, r.Velocity)
	assert.Equal(t, 77.0, *r.Velocity)
	assert.Equal(t, "Beirut", r.State)
	assert.Nil(t, r.Date)
}
