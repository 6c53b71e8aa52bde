package processor

import (
	"math"
	"testing"

	"github.com/nci/spectral/raster"
	"github.com/nci/spectral/utils"
)

func TestCustomFormulaMatchesBuiltin(t *testing.T) {
	ci := &utils.CustomIndex{
		Identifier:  "my_ndvi",
		Name:        "My NDVI",
		Expressions: []string{"(nir - red) / (nir + red)"},
		Bands: []utils.CustomBand{
			{Variable: "red", Domain: "red"},
			{Variable: "nir", Domain: "nearinfrared"},
		},
	}
	f, err := FormulaFromConfig(ci)
	if err != nil {
		t.Fatalf("custom formula compilation failed: %v", err)
	}

	src := raster.NewFloatRaster(1, 1, 2)
	src.SetFloatValue(0, 0, 0, 0.2)
	src.SetFloatValue(0, 0, 1, 0.8)
	im := &raster.Imaging{Domains: []raster.Domain{raster.Red, raster.NearInfrared}}

	custom, err := NewTransformation(f, src, nil, im, nil)
	if err != nil {
		t.Fatalf("custom transformation failed: %v", err)
	}
	builtin, err := NewTransformation(IndexByIdentifier("ndvi"), src, nil, im, nil)
	if err != nil {
		t.Fatalf("builtin transformation failed: %v", err)
	}

	a := custom.ComputeFloat(0, 0, 0)
	b := builtin.ComputeFloat(0, 0, 0)
	if math.Abs(a-b) > 1e-12 {
		t.Errorf("custom ndvi mismatch: custom %v, builtin %v", a, b)
	}
}

func TestCustomFormulaZeroDenominator(t *testing.T) {
	ci := &utils.CustomIndex{
		Identifier:  "ratio",
		Expressions: []string{"a / b"},
		Bands: []utils.CustomBand{
			{Variable: "a", Default: intPtr(0)},
			{Variable: "b", Default: intPtr(1)},
		},
	}
	f, err := FormulaFromConfig(ci)
	if err != nil {
		t.Fatalf("custom formula compilation failed: %v", err)
	}

	src := raster.NewFloatRaster(1, 1, 2)
	src.SetFloatValue(0, 0, 0, 0.7)
	tr, err := NewTransformation(f, src, nil, nil, nil)
	if err != nil {
		t.Fatalf("custom transformation failed: %v", err)
	}
	if v := tr.ComputeFloat(0, 0, 0); v != 0 {
		t.Errorf("custom zero denominator failed, expecting 0, actual %v", v)
	}
}

func TestCustomFormulaThreeExpressions(t *testing.T) {
	ci := &utils.CustomIndex{
		Identifier:  "composite",
		Expressions: []string{"a", "b", "a + b"},
		Bands: []utils.CustomBand{
			{Variable: "a", Default: intPtr(0)},
			{Variable: "b", Default: intPtr(1)},
		},
	}
	f, err := FormulaFromConfig(ci)
	if err != nil {
		t.Fatalf("custom formula compilation failed: %v", err)
	}
	if f.Result.Bands != 3 {
		t.Fatalf("expecting 3 result bands, actual %v", f.Result.Bands)
	}
	if f.Result.Presentation.Mode != raster.PresentFalseColour {
		t.Errorf("three band custom index should present as false colour")
	}
	if len(f.Result.Presentation.BandAssignment) != 3 {
		t.Errorf("false colour assignment incomplete: %v", f.Result.Presentation.BandAssignment)
	}
}

func TestCustomFormulaValidation(t *testing.T) {
	cases := []*utils.CustomIndex{
		{Identifier: "", Expressions: []string{"a"}, Bands: []utils.CustomBand{{Variable: "a", Default: intPtr(0)}}},
		{Identifier: "ndvi", Expressions: []string{"a"}, Bands: []utils.CustomBand{{Variable: "a", Default: intPtr(0)}}},
		{Identifier: "no_expr", Expressions: []string{}},
		{Identifier: "no_binding", Expressions: []string{"a + b"}, Bands: []utils.CustomBand{{Variable: "a", Default: intPtr(0)}}},
		{Identifier: "bad_domain", Expressions: []string{"a"}, Bands: []utils.CustomBand{{Variable: "a", Domain: "gamma"}}},
		{Identifier: "bare_var", Expressions: []string{"a"}, Bands: []utils.CustomBand{{Variable: "a"}}},
	}
	for _, ci := range cases {
		if _, err := FormulaFromConfig(ci); err == nil {
			t.Errorf("custom index %q accepted, expecting error", ci.Identifier)
		}
	}
}

func intPtr(v int) *int { return &v }
