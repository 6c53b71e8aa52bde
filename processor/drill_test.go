package processor

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/nci/spectral/raster"
)

func TestDrillFullExtent(t *testing.T) {
	src := raster.NewFloatRaster(2, 2, 2)
	src.SetFloatValue(0, 0, 0, 0.2)
	src.SetFloatValue(0, 0, 1, 0.8)
	src.SetFloatValue(0, 1, 0, 0.1)
	src.SetFloatValue(0, 1, 1, 0.3)
	src.SetFloatValue(1, 0, 0, 0.25)
	src.SetFloatValue(1, 0, 1, 0.75)
	// pixel (1,1) all zero: ndvi 0, still counted

	tr, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}
	sg, err := tr.Run()
	if err != nil {
		t.Fatalf("ndvi run failed: %v", err)
	}

	dr, err := Drill("ndvi", sg, nil)
	if err != nil {
		t.Fatalf("drill failed: %v", err)
	}
	if dr.Counts[0] != 4 {
		t.Errorf("drill count failed, expecting 4, actual %v", dr.Counts[0])
	}
	expected := (0.6 + 0.5 + 0.5 + 0.0) / 4
	if math.Abs(dr.Means[0]-expected) > 1e-9 {
		t.Errorf("drill mean failed, expecting %v, actual %v", expected, dr.Means[0])
	}
}

func TestDrillSkipsNoData(t *testing.T) {
	out := raster.NewFloatRaster(1, 3, 1)
	out.NoData = math.NaN()
	out.SetFloatValue(0, 0, 0, 0.4)
	out.SetFloatValue(0, 1, 0, math.NaN())
	out.SetFloatValue(0, 2, 0, 0.6)

	sg, err := raster.CreateSpectralGeometry(nil, out, &raster.Presentation{}, nil)
	if err != nil {
		t.Fatalf("geometry construction failed: %v", err)
	}
	dr, err := Drill("ndvi", sg, nil)
	if err != nil {
		t.Fatalf("drill failed: %v", err)
	}
	if dr.Counts[0] != 2 {
		t.Errorf("nodata cell counted: %v", dr.Counts[0])
	}
	if math.Abs(dr.Means[0]-0.5) > 1e-9 {
		t.Errorf("drill mean failed, expecting 0.5, actual %v", dr.Means[0])
	}
}

func TestDrillMasked(t *testing.T) {
	out := raster.NewFloatRaster(1, 2, 1)
	out.SetFloatValue(0, 0, 0, 1.0)
	out.SetFloatValue(0, 1, 0, 3.0)

	mask := image.NewGray(image.Rect(0, 0, 2, 1))
	mask.SetGray(1, 0, color.Gray{Y: 255})

	sg, err := raster.CreateSpectralGeometry(nil, out, &raster.Presentation{}, nil)
	if err != nil {
		t.Fatalf("geometry construction failed: %v", err)
	}
	dr, err := Drill("x", sg, mask)
	if err != nil {
		t.Fatalf("drill failed: %v", err)
	}
	if dr.Counts[0] != 1 || dr.Means[0] != 3.0 {
		t.Errorf("masked drill failed: count %v mean %v", dr.Counts[0], dr.Means[0])
	}
}

func TestDrillCSV(t *testing.T) {
	dr := &DrillResult{
		Identifier: "vog",
		Bands:      []string{"vog1", "vog2"},
		Means:      []float64{1.25, math.NaN()},
		Counts:     []int{10, 0},
	}
	csv := dr.ToCSV()
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected csv shape: %q", csv)
	}
	if lines[0] != "index,band,mean,count" {
		t.Errorf("csv header failed: %q", lines[0])
	}
	if lines[1] != "vog,vog1,1.250000,10" {
		t.Errorf("csv row failed: %q", lines[1])
	}
	if lines[2] != "vog,vog2,,0" {
		t.Errorf("csv empty mean failed: %q", lines[2])
	}
}
