// Package geo maps probe coordinates to governorate names by polygon
// containment against a boundary set loaded once at startup.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// Boundary is one named governorate polygon.
type Boundary struct {
	Name string
	Geom geom.T
}

// BoundarySet is an immutable, ordered collection of governorate boundaries.
// Iteration order is the order the source file listed them in, which makes
// classification deterministic. Boundaries are assumed non-overlapping; if
// they ever overlap, the first match in load order wins.
type BoundarySet struct {
	boundaries []Boundary
}

// NewBoundarySet builds a set from pre-constructed boundaries, in order.
func NewBoundarySet(boundaries []Boundary) *BoundarySet {
	return &BoundarySet{boundaries: boundaries}
}

// Len returns the number of boundaries in the set.
func (b *BoundarySet) Len() int { return len(b.boundaries) }

// Names returns the boundary names in load order.
func (b *BoundarySet) Names() []string {
	names := make([]string, len(b.boundaries))
	for i, bd := range b.boundaries {
		names[i] = bd.Name
	}
	return names
}

// Classify returns the name of the first boundary containing (lat, lon), or
// model.StateUnspecified when either coordinate is missing or non-finite, or
// when no boundary contains the point. No geometry test is attempted for
// unusable input.
func (b *BoundarySet) Classify(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return model.StateUnspecified
	}
	if !finite(*lat) || !finite(*lon) {
		return model.StateUnspecified
	}

	point := geom.Coord{*lon, *lat}
	for _, bd := range b.boundaries {
		if contains(bd.Geom, point) {
			return bd.Name
		}
	}
	return model.StateUnspecified
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// contains tests polygon containment for the geometry types boundary files
// carry. Anything else (points, lines) never contains a probe.
func contains(g geom.T, c geom.Coord) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, c)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if polygonContains(t.Polygon(i), c) {
				return true
			}
		}
	}
	return false
}

// polygonContains reports whether c is inside the outer ring and outside
// every hole.
func polygonContains(p *geom.Polygon, c geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// Load reads a boundary file, dispatching on extension: .geojson/.json via
// the GeoJSON decoder, .shp via the shapefile reader.
func Load(path, nameProperty string) (*BoundarySet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return LoadGeoJSON(path, nameProperty)
	case ".shp":
		return LoadShapefile(path, nameProperty)
	default:
		return nil, eris.Errorf("geo: unsupported boundary format %q", filepath.Ext(path))
	}
}

// LoadGeoJSON reads a GeoJSON feature collection and extracts one boundary
// per feature, named by the given property. Features without a usable name
// or polygonal geometry are skipped with a warning.
func LoadGeoJSON(path, nameProperty string) (*BoundarySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read boundary file %s", path)
	}
	return ParseGeoJSON(data, nameProperty)
}

// ParseGeoJSON decodes boundary features from raw GeoJSON bytes.
func ParseGeoJSON(data []byte, nameProperty string) (*BoundarySet, error) {
	log := zap.L().With(zap.String("component", "geo"))

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}

	var boundaries []Boundary
	for i, f := range fc.Features {
		name := featureName(f.Properties, nameProperty)
		if name == "" {
			log.Warn("skipping unnamed boundary feature", zap.Int("index", i))
			continue
		}
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
			boundaries = append(boundaries, Boundary{Name: name, Geom: f.Geometry})
		default:
			log.Warn("skipping non-polygonal boundary feature",
				zap.Int("index", i), zap.String("name", name))
		}
	}

	if len(boundaries) == 0 {
		return nil, eris.New("geo: boundary file contains no usable polygons")
	}

	log.Info("boundaries loaded", zap.Int("count", len(boundaries)))
	return NewBoundarySet(boundaries), nil
}

func featureName(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
