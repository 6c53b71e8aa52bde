package processor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/nci/spectral/params"
	"github.com/nci/spectral/raster"

	"golang.org/x/net/context"
)

func floatSource(rows, cols, bands int) *raster.FloatRaster {
	return raster.NewFloatRaster(rows, cols, bands)
}

func TestNDVI(t *testing.T) {
	src := floatSource(1, 2, 2)
	src.SetFloatValue(0, 0, 0, 0.2) // red
	src.SetFloatValue(0, 0, 1, 0.8) // nir
	// pixel (0,1) stays all zero

	tr, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}

	if v := tr.ComputeFloat(0, 0, 0); math.Abs(v-0.6) > 1e-9 {
		t.Errorf("ndvi failed, expecting 0.6, actual %v", v)
	}
	if v := tr.ComputeFloat(0, 1, 0); v != 0 {
		t.Errorf("ndvi zero denominator failed, expecting 0, actual %v", v)
	}

	sg, err := tr.Run()
	if err != nil {
		t.Fatalf("ndvi run failed: %v", err)
	}
	if v := sg.Raster.GetFloatValue(0, 0, 0); math.Abs(v-0.6) > 1e-9 {
		t.Errorf("ndvi result raster failed, expecting 0.6, actual %v", v)
	}
	if sg.Raster.NumberOfBands() != 1 {
		t.Errorf("ndvi result band count failed, expecting 1, actual %v", sg.Raster.NumberOfBands())
	}
}

func TestZeroDenominatorPolicy(t *testing.T) {
	// Simple Ratio with red == 0 must yield 0 regardless of nir
	src := floatSource(1, 1, 2)
	src.SetFloatValue(0, 0, 1, 0.9)

	tr, err := NewTransformation(IndexByIdentifier("sr"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("sr construction failed: %v", err)
	}
	if v := tr.ComputeFloat(0, 0, 0); v != 0 {
		t.Errorf("sr zero guard failed, expecting 0, actual %v", v)
	}

	// the reciprocal indices zero out when either term is zero
	im := &raster.Imaging{
		Ranges: []raster.WavelengthRange{{MinNm: 540, MaxNm: 560}, {MinNm: 690, MaxNm: 710}},
	}
	ariSrc := floatSource(1, 1, 2)
	ariSrc.SetFloatValue(0, 0, 1, 0.5)
	tr, err = NewTransformation(IndexByIdentifier("ari1"), ariSrc, nil, im, nil)
	if err != nil {
		t.Fatalf("ari1 construction failed: %v", err)
	}
	if v := tr.ComputeFloat(0, 0, 0); v != 0 {
		t.Errorf("ari1 zero guard failed, expecting 0, actual %v", v)
	}
}

func TestIntegerSourcePath(t *testing.T) {
	src := raster.NewIntRaster(1, 1, 2, 16)
	src.SetFloatValue(0, 0, 0, 50)
	src.SetFloatValue(0, 0, 1, 150)

	tr, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}
	if v := tr.ComputeFloat(0, 0, 0); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("ndvi over integer raster failed, expecting 0.5, actual %v", v)
	}
}

func vogImaging() *raster.Imaging {
	nms := []float64{715, 720, 726, 734, 740, 747}
	im := &raster.Imaging{}
	for _, nm := range nms {
		im.Ranges = append(im.Ranges, raster.WavelengthRange{MinNm: nm, MaxNm: nm + 2})
	}
	return im
}

func TestVOGCompositeEquivalence(t *testing.T) {
	im := vogImaging()
	src := floatSource(2, 2, 6)
	vals := []float64{0.31, 0.35, 0.42, 0.47, 0.52, 0.49}
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			for b := 0; b < 6; b++ {
				src.SetFloatValue(row, col, b, vals[b]*float64(1+row+col))
			}
		}
	}

	composite, err := NewTransformation(IndexByIdentifier("vog"), src, nil, im, nil)
	if err != nil {
		t.Fatalf("vog construction failed: %v", err)
	}

	singles := make([]*Transformation, 3)
	for i, id := range []string{"vog1", "vog2", "vog3"} {
		tr, err := NewTransformation(IndexByIdentifier(id), src, nil, im, nil)
		if err != nil {
			t.Fatalf("%s construction failed: %v", id, err)
		}
		singles[i] = tr
	}

	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			out := composite.ComputeFloatBands(row, col)
			for i, tr := range singles {
				if single := tr.ComputeFloat(row, col, 0); single != out[i] {
					t.Errorf("vog band %d mismatch at (%d,%d): composite %v, single %v",
						i, row, col, out[i], single)
				}
			}
		}
	}
}

func TestOutOfRangeBandIndex(t *testing.T) {
	src := floatSource(1, 1, 2)
	b := params.Bindings{}.Set(params.Get("index_of_near_infrared_band"), 2)

	_, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, b)
	if err == nil {
		t.Fatalf("out of range band index accepted")
	}
	var oor *OutOfRangeBandIndexError
	if !errors.As(err, &oor) {
		t.Errorf("unexpected error type: %v", err)
	}
	if oor.Index != 2 || oor.NumberOfBands != 2 {
		t.Errorf("out of range error detail failed: %+v", oor)
	}
}

func TestInPlaceRejected(t *testing.T) {
	src := floatSource(1, 1, 2)
	_, err := NewTransformation(IndexByIdentifier("ndvi"), src, src, nil, nil)
	if err == nil {
		t.Fatalf("in-place transformation accepted")
	}
	var ip *InPlaceNotSupportedError
	if !errors.As(err, &ip) {
		t.Errorf("unexpected error type: %v", err)
	}
}

func TestNullSource(t *testing.T) {
	_, err := NewTransformation(IndexByIdentifier("ndvi"), nil, nil, nil, nil)
	if err == nil {
		t.Fatalf("null source accepted")
	}
	var ns *NullSourceError
	if !errors.As(err, &ns) {
		t.Errorf("unexpected error type: %v", err)
	}
}

func TestMissingImagingMetadata(t *testing.T) {
	// the narrow band indices carry no positional default
	src := floatSource(1, 1, 2)
	_, err := NewTransformation(IndexByIdentifier("pri"), src, nil, nil, nil)
	if err == nil {
		t.Fatalf("pri constructed without imaging metadata")
	}
	var isd *InvalidSourceDataError
	if !errors.As(err, &isd) {
		t.Errorf("unexpected error type: %v", err)
	}
}

func TestExplicitBindingWinsOverMetadata(t *testing.T) {
	im := &raster.Imaging{Domains: []raster.Domain{raster.Red, raster.NearInfrared}}
	src := floatSource(1, 1, 3)
	src.SetFloatValue(0, 0, 0, 0.2)
	src.SetFloatValue(0, 0, 1, 0.8)
	src.SetFloatValue(0, 0, 2, 0.6)

	b := params.Bindings{}.Set(params.Get("index_of_near_infrared_band"), 2)
	tr, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, im, b)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}
	idx := tr.BandIndices()
	if idx[0] != 0 || idx[1] != 2 {
		t.Errorf("band resolution failed, expecting [0 2], actual %v", idx)
	}
}

func TestInvalidParameterValuePropagates(t *testing.T) {
	src := floatSource(1, 1, 2)
	b := params.Bindings{}.Set(params.Get("soil_adjustment_factor"), 2.0)
	_, err := NewTransformation(IndexByIdentifier("savi"), src, nil, nil, b)
	if err == nil {
		t.Fatalf("invalid soil adjustment factor accepted")
	}
	var invalid *params.InvalidParameterValueError
	if !errors.As(err, &invalid) {
		t.Errorf("unexpected error type: %v", err)
	}
}

func TestRunConcMatchesRun(t *testing.T) {
	src := floatSource(17, 11, 2)
	for row := 0; row < 17; row++ {
		for col := 0; col < 11; col++ {
			src.SetFloatValue(row, col, 0, float64(row+1)*0.01)
			src.SetFloatValue(row, col, 1, float64(col+1)*0.03)
		}
	}

	seq, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}
	seqOut, err := seq.Run()
	if err != nil {
		t.Fatalf("sequential run failed: %v", err)
	}

	conc, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}
	concOut, err := conc.RunConc(context.Background(), 4)
	if err != nil {
		t.Fatalf("concurrent run failed: %v", err)
	}

	for row := 0; row < 17; row++ {
		for col := 0; col < 11; col++ {
			a := seqOut.Raster.GetFloatValue(row, col, 0)
			b := concOut.Raster.GetFloatValue(row, col, 0)
			if a != b {
				t.Errorf("concurrent result mismatch at (%d,%d): %v != %v", row, col, a, b)
			}
		}
	}
}

func TestMaskedRun(t *testing.T) {
	src := floatSource(2, 2, 2)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			src.SetFloatValue(row, col, 0, 0.2)
			src.SetFloatValue(row, col, 1, 0.8)
		}
	}

	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	mask.SetGray(0, 0, color.Gray{Y: 255})

	tr, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, nil, nil)
	if err != nil {
		t.Fatalf("ndvi construction failed: %v", err)
	}
	if err := tr.SetMask(mask); err != nil {
		t.Fatalf("set mask failed: %v", err)
	}
	sg, err := tr.Run()
	if err != nil {
		t.Fatalf("masked run failed: %v", err)
	}

	if v := sg.Raster.GetFloatValue(0, 0, 0); math.Abs(v-0.6) > 1e-9 {
		t.Errorf("masked-in cell failed, expecting 0.6, actual %v", v)
	}
	if v := sg.Raster.GetFloatValue(1, 1, 0); !math.IsNaN(v) {
		t.Errorf("masked-out cell failed, expecting NaN, actual %v", v)
	}
}

func TestPreallocatedResultValidation(t *testing.T) {
	src := floatSource(2, 2, 2)

	wrongExtent := floatSource(3, 2, 1)
	if _, err := NewTransformation(IndexByIdentifier("ndvi"), src, wrongExtent, nil, nil); err == nil {
		t.Errorf("result with mismatched extent accepted")
	}

	wrongBands := floatSource(2, 2, 2)
	if _, err := NewTransformation(IndexByIdentifier("ndvi"), src, wrongBands, nil, nil); err == nil {
		t.Errorf("result with mismatched band count accepted")
	}

	wrongFormat := raster.NewIntRaster(2, 2, 1, 32)
	if _, err := NewTransformation(IndexByIdentifier("ndvi"), src, wrongFormat, nil, nil); err == nil {
		t.Errorf("integer result for a floating formula accepted")
	}

	wrongDepth := floatSource(2, 2, 1)
	wrongDepth.Depth = 32
	if _, err := NewTransformation(IndexByIdentifier("ndvi"), src, wrongDepth, nil, nil); err == nil {
		t.Errorf("result with mismatched bit depth accepted")
	}

	ok := floatSource(2, 2, 1)
	tr, err := NewTransformation(IndexByIdentifier("ndvi"), src, ok, nil, nil)
	if err != nil {
		t.Fatalf("valid preallocated result rejected: %v", err)
	}
	sg, err := tr.Run()
	if err != nil {
		t.Fatalf("run with preallocated result failed: %v", err)
	}
	if sg.Raster != raster.Raster(ok) {
		t.Errorf("engine did not populate the preallocated raster")
	}
}

func TestCatalogComplete(t *testing.T) {
	all := Indices()
	if len(all) < 25 {
		t.Errorf("index catalog too small: %d", len(all))
	}
	seen := map[string]bool{}
	for _, f := range all {
		if seen[f.Identifier] {
			t.Errorf("duplicate index identifier: %v", f.Identifier)
		}
		seen[f.Identifier] = true
		if f.Result.Bands < 1 || f.Eval == nil || len(f.Bands) == 0 {
			t.Errorf("malformed index: %v", f.Identifier)
		}
	}
	if IndexByIdentifier("ndvi") == nil {
		t.Errorf("ndvi missing from catalog")
	}
}
