package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultMap(t *testing.T) {
	header := []string{"Date", "Time", "Coordinate (lon, lat)", "Course", "Velocity", "OSM ID"}
	cols := DefaultColumnMap().Resolve(header)

	assert.Equal(t, 0, cols[FieldDate])
	assert.Equal(t, 1, cols[FieldTime])
	assert.Equal(t, 2, cols[FieldCoordinate])
	assert.Equal(t, 3, cols[FieldCourse])
	assert.Equal(t, 4, cols[FieldVelocity])
	assert.Equal(t, 5, cols[FieldOSMID])
}

func TestResolveHeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		field  Field
		want   int
	}{
		{"case insensitive", []string{"date"}, FieldDate, 0},
		{"padded header", []string{" Date "}, FieldDate, 0},
		{"osm underscore variant", []string{"Date", "osm_id"}, FieldOSMID, 1},
		{"coordinate substring", []string{"GPS Coordinates"}, FieldCoordinate, 0},
		{"missing field", []string{"Date"}, FieldVelocity, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := DefaultColumnMap().Resolve(tt.header)
			assert.Equal(t, tt.want, cols[tt.field])
		})
	}
}

func TestColumnsGet(t *testing.T) {
	cols := Columns{FieldDate: 0, FieldVelocity: 5, FieldCourse: -1}
	record := []string{"2023-06-01", "08:00"}

	assert.Equal(t, "2023-06-01", cols.Get(record, FieldDate))
	// Index past the record and unmapped fields both read empty.
	assert.Equal(t, "", cols.Get(record, FieldVelocity))
	assert.Equal(t, "", cols.Get(record, FieldCourse))
	assert.Equal(t, "", cols.Get(record, FieldOSMID))
}

func TestLoadColumnMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
coordinate:
  substring: position
date:
  headers: ["Datum"]
`), 0o644))

	cm, err := LoadColumnMap(path)
	require.NoError(t, err)

	cols := cm.Resolve([]string{"Datum", "Position (x, y)"})
	assert.Equal(t, 0, cols[FieldDate])
	assert.Equal(t, 1, cols[FieldCoordinate])
}

func TestLoadColumnMapEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := LoadColumnMap(path)
	assert.Error(t, err)
}

func TestLoadColumnMapMissingFile(t *testing.T) {
	_, err := LoadColumnMap(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
