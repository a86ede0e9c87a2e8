package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LoadShapefile reads governorate boundaries from a shapefile, naming each
// record by the given attribute field. DBF attributes are frequently stored
// in all caps; names are title-cased for display consistency with GeoJSON
// sources.
func LoadShapefile(path, nameField string) (*BoundarySet, error) {
	log := zap.L().With(zap.String("component", "geo"))

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, nameField)
	if nameIdx < 0 {
		return nil, eris.Errorf("geo: shapefile field %q not found", nameField)
	}

	titler := cases.Title(language.English)

	var boundaries []Boundary
	for reader.Next() {
		n, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			log.Warn("skipping non-polygon shapefile record", zap.Int("record", n))
			continue
		}

		name := strings.TrimSpace(reader.Attribute(nameIdx))
		if name == "" {
			log.Warn("skipping unnamed shapefile record", zap.Int("record", n))
			continue
		}
		if name == strings.ToUpper(name) {
			name = titler.String(strings.ToLower(name))
		}

		g := polygonToMultiPolygon(poly)
		if g == nil {
			log.Warn("skipping degenerate shapefile polygon", zap.String("name", name))
			continue
		}

		boundaries = append(boundaries, Boundary{Name: name, Geom: g})
	}

	if len(boundaries) == 0 {
		return nil, eris.New("geo: shapefile contains no usable polygons")
	}

	log.Info("boundaries loaded", zap.Int("count", len(boundaries)))
	return NewBoundarySet(boundaries), nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if
// not found. DBF field names are NUL-padded.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon,
// one member polygon per part.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geo: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
