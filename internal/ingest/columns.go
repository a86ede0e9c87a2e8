// Package ingest streams a probe CSV, normalizes each row, classifies it by
// governorate, and bulk-loads the batch in one transaction.
package ingest

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Field is a logical CSV field the pipeline consumes.
type Field string

const (
	FieldCoordinate Field = "coordinate"
	FieldDate       Field = "date"
	FieldTime       Field = "time"
	FieldCourse     Field = "course"
	FieldVelocity   Field = "velocity"
	FieldOSMID      Field = "osm_id"
)

// Rule maps a logical field to the header spellings that may carry it.
// Headers are tried in priority order with case-insensitive exact matching;
// Substring, when set, is a case-insensitive substring fallback for headers
// that embed units or whitespace (the coordinate column).
type Rule struct {
	Headers   []string `yaml:"headers"`
	Substring string   `yaml:"substring"`
}

// ColumnMap is the declarative header mapping, evaluated once per file.
type ColumnMap map[Field]Rule

// DefaultColumnMap covers the header variants seen in probe exports.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		FieldCoordinate: {Substring: "coordinate"},
		FieldDate:       {Headers: []string{"Date"}},
		FieldTime:       {Headers: []string{"Time"}},
		FieldCourse:     {Headers: []string{"Course"}},
		FieldVelocity:   {Headers: []string{"Velocity"}},
		FieldOSMID:      {Headers: []string{"OSM ID", "osm id", "osm_id"}},
	}
}

// LoadColumnMap reads a ColumnMap override from a YAML file.
func LoadColumnMap(path string) (ColumnMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read column map %s", path)
	}

	var cm ColumnMap
	if err := yaml.Unmarshal(data, &cm); err != nil {
		return nil, eris.Wrap(err, "ingest: decode column map")
	}
	if len(cm) == 0 {
		return nil, eris.New("ingest: column map is empty")
	}
	return cm, nil
}

// Columns holds the per-file resolution of logical fields to header indexes.
// Unmapped fields resolve to -1 and read as empty.
type Columns map[Field]int

// Resolve maps each logical field to its header index. Resolution happens
// once per file; rows are then plain index lookups.
func (cm ColumnMap) Resolve(header []string) Columns {
	cols := make(Columns, len(cm))
	for field, rule := range cm {
		cols[field] = resolveField(header, rule)
	}
	return cols
}

func resolveField(header []string, rule Rule) int {
	for _, want := range rule.Headers {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(want)) {
				return i
			}
		}
	}
	if rule.Substring != "" {
		sub := strings.ToLower(rule.Substring)
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), sub) {
				return i
			}
		}
	}
	return -1
}

// Get returns the raw value of a logical field from a record, or empty when
// the field is unmapped or the record is short.
func (c Columns) Get(record []string, field Field) string {
	idx, ok := c[field]
	if !ok || idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
