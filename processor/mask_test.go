package processor

import (
	"encoding/json"
	"testing"

	geo "github.com/nci/geometry"
)

// 10x10 cell grid with origin (0, 10), 1 unit cells, north up
var testGeoTransform = []float64{0, 1, 0, 10, 0, -1}

func featureFromJSON(t *testing.T, doc string) *geo.Feature {
	var feat geo.Feature
	if err := json.Unmarshal([]byte(doc), &feat); err != nil {
		t.Fatalf("problem unmarshalling GeoJSON object: %v", err)
	}
	return &feat
}

func TestRasterizeMaskPolygon(t *testing.T) {
	feat := featureFromJSON(t, `{
		"type": "Feature",
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[0, 10], [5, 10], [5, 5], [0, 5], [0, 10]]]
		}
	}`)

	mask, err := RasterizeMask(feat, testGeoTransform, 10, 10)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}

	// top left quadrant in, bottom right quadrant out
	if mask.GrayAt(2, 2).Y != 255 {
		t.Errorf("cell (2,2) should be inside the polygon")
	}
	if mask.GrayAt(7, 7).Y != 0 {
		t.Errorf("cell (7,7) should be outside the polygon")
	}
	if mask.GrayAt(7, 2).Y != 0 {
		t.Errorf("cell (7,2) should be outside the polygon")
	}
}

func TestRasterizeMaskPolygonHole(t *testing.T) {
	feat := featureFromJSON(t, `{
		"type": "Feature",
		"geometry": {
			"type": "Polygon",
			"coordinates": [
				[[0, 10], [10, 10], [10, 0], [0, 0], [0, 10]],
				[[4, 6], [6, 6], [6, 4], [4, 4], [4, 6]]
			]
		}
	}`)

	mask, err := RasterizeMask(feat, testGeoTransform, 10, 10)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}

	if mask.GrayAt(1, 1).Y != 255 {
		t.Errorf("cell (1,1) should be inside the outer ring")
	}
	// cell centre (4.5, 5.5) falls in the hole
	if mask.GrayAt(4, 4).Y != 0 {
		t.Errorf("cell (4,4) should fall in the hole")
	}
}

func TestRasterizeMaskMultiPolygon(t *testing.T) {
	feat := featureFromJSON(t, `{
		"type": "Feature",
		"geometry": {
			"type": "MultiPolygon",
			"coordinates": [
				[[[0, 10], [2, 10], [2, 8], [0, 8], [0, 10]]],
				[[[8, 2], [10, 2], [10, 0], [8, 0], [8, 2]]]
			]
		}
	}`)

	mask, err := RasterizeMask(feat, testGeoTransform, 10, 10)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}

	if mask.GrayAt(0, 0).Y != 255 {
		t.Errorf("cell (0,0) should be inside the first polygon")
	}
	if mask.GrayAt(9, 9).Y != 255 {
		t.Errorf("cell (9,9) should be inside the second polygon")
	}
	if mask.GrayAt(5, 5).Y != 0 {
		t.Errorf("cell (5,5) should be outside both polygons")
	}
}

func TestRasterizeMaskRejectsUnsupported(t *testing.T) {
	feat := featureFromJSON(t, `{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [1, 1]}
	}`)
	if _, err := RasterizeMask(feat, testGeoTransform, 10, 10); err == nil {
		t.Errorf("point geometry accepted for masking")
	}

	poly := featureFromJSON(t, `{
		"type": "Feature",
		"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]}
	}`)
	if _, err := RasterizeMask(poly, []float64{0, 1}, 10, 10); err == nil {
		t.Errorf("truncated geotransform accepted")
	}
}
