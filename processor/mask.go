package processor

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	geo "github.com/nci/geometry"
)

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// RasterizeMask burns a GeoJSON feature into a byte mask aligned
// with a raster of the given extent: 255 inside the geometry, 0
// outside. Cells are tested at their centre with the even-odd rule,
// so polygon holes are honoured. The geometry must be in the same
// CRS as the geotransform.
func RasterizeMask(feat *geo.Feature, geoTransform []float64, rows, cols int) (*image.Gray, error) {
	if len(geoTransform) < 6 {
		return nil, fmt.Errorf("invalid geotransform: %v", geoTransform)
	}

	geomJSON, err := json.Marshal(feat.Geometry)
	if err != nil {
		return nil, fmt.Errorf("problem marshaling GeoJSON geometry: %v", err)
	}

	var geom geoJSONGeometry
	if err := json.Unmarshal(geomJSON, &geom); err != nil {
		return nil, fmt.Errorf("problem unmarshalling geometry: %v", err)
	}

	var polys [][][][]float64
	switch geom.Type {
	case "Polygon":
		var poly [][][]float64
		if err := json.Unmarshal(geom.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("invalid Polygon coordinates: %v", err)
		}
		polys = append(polys, poly)
	case "MultiPolygon":
		if err := json.Unmarshal(geom.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("invalid MultiPolygon coordinates: %v", err)
		}
	default:
		return nil, fmt.Errorf("geometry type %s not supported for masking", geom.Type)
	}

	mask := image.NewGray(image.Rect(0, 0, cols, rows))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x := geoTransform[0] + (float64(col)+0.5)*geoTransform[1] + (float64(row)+0.5)*geoTransform[2]
			y := geoTransform[3] + (float64(col)+0.5)*geoTransform[4] + (float64(row)+0.5)*geoTransform[5]
			inside := false
			for _, poly := range polys {
				for _, ring := range poly {
					if pointInRing(x, y, ring) {
						inside = !inside
					}
				}
			}
			if inside {
				mask.SetGray(col, row, color.Gray{Y: 255})
			}
		}
	}
	return mask, nil
}

// pointInRing is the even-odd crossing test against one linear
// ring. Ring closure is not assumed; the wrap segment is included.
func pointInRing(x, y float64, ring [][]float64) bool {
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		x1, y1 := ring[i][0], ring[i][1]
		x2, y2 := ring[(i+1)%n][0], ring[(i+1)%n][1]
		if (y1 > y) != (y2 > y) {
			xCross := x1 + (y-y1)/(y2-y1)*(x2-x1)
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}
