package raster

import (
	"bytes"
	"strings"
	"testing"
)

func TestAccessorFacade(t *testing.T) {
	ir := NewIntRaster(2, 3, 2, 16)
	ir.SetFloatValue(1, 2, 1, 7.9)
	if v := ir.GetValue(1, 2, 1); v != 7 {
		t.Errorf("integer raster truncation failed, expecting 7, actual %v", v)
	}
	if v := ir.GetFloatValue(1, 2, 1); v != 7 {
		t.Errorf("integer raster float read failed, expecting 7, actual %v", v)
	}

	fr := NewFloatRaster(2, 3, 2)
	fr.SetFloatValue(0, 1, 1, 0.625)
	if v := fr.GetFloatValue(0, 1, 1); v != 0.625 {
		t.Errorf("floating raster read failed, expecting 0.625, actual %v", v)
	}
	if v := fr.GetValue(0, 1, 1); v != 0 {
		t.Errorf("floating raster integer read failed, expecting 0, actual %v", v)
	}
}

func TestImagingLookups(t *testing.T) {
	im := &Imaging{
		Domains: []Domain{Blue, Green, Red, NearInfrared},
		Ranges: []WavelengthRange{
			{450, 520}, {520, 600}, {630, 690}, {760, 900},
		},
	}

	if idx := im.DomainIndex(Red); idx != 2 {
		t.Errorf("domain lookup failed, expecting 2, actual %v", idx)
	}
	if idx := im.DomainIndex(ShortWavelengthInfrared); idx != -1 {
		t.Errorf("missing domain lookup failed, expecting -1, actual %v", idx)
	}
	if idx := im.RangeIndex(RangeContaining(860)); idx != 3 {
		t.Errorf("wavelength lookup failed, expecting 3, actual %v", idx)
	}
	if idx := im.RangeIndex(RangeContaining(690)); idx != 2 {
		t.Errorf("inclusive boundary lookup failed, expecting 2, actual %v", idx)
	}
	if idx := im.RangeIndex(RangeWithin(600, 700)); idx != 2 {
		t.Errorf("interval lookup failed, expecting 2, actual %v", idx)
	}
}

func TestReadAAIGrid(t *testing.T) {
	grid := `ncols 3
nrows 2
xllcorner 100.0
yllcorner -35.0
cellsize 0.5
NODATA_value -9999
1 2 3
4 -9999 6
`
	r, geo, err := ReadAAIGrid(strings.NewReader(grid))
	if err != nil {
		t.Fatalf("aaigrid read failed: %v", err)
	}
	if r.NumberOfRows() != 2 || r.NumberOfColumns() != 3 || r.NumberOfBands() != 1 {
		t.Errorf("aaigrid shape failed, actual %dx%dx%d", r.NumberOfRows(), r.NumberOfColumns(), r.NumberOfBands())
	}
	if v := r.GetFloatValue(1, 2, 0); v != 6 {
		t.Errorf("aaigrid value failed, expecting 6, actual %v", v)
	}
	if r.GetNoData() != -9999 {
		t.Errorf("aaigrid nodata failed, expecting -9999, actual %v", r.GetNoData())
	}
	if geo.GeoTransform[0] != 100.0 || geo.GeoTransform[3] != -34.0 {
		t.Errorf("aaigrid geotransform failed, actual %v", geo.GeoTransform)
	}
}

func TestBSQHeaderAndPayload(t *testing.T) {
	hdrText := `rows: 1
cols: 2
bands: 2
format: floating
nodata: -1
imaging:
  - domain: red
    wavelength: {min: 630, max: 690}
  - domain: nearinfrared
    wavelength: {min: 760, max: 900}
`
	hdr, err := ParseBSQHeader(strings.NewReader(hdrText))
	if err != nil {
		t.Fatalf("header parse failed: %v", err)
	}
	im := hdr.ImagingMetadata()
	if im == nil || im.DomainIndex(NearInfrared) != 1 {
		t.Errorf("header imaging failed: %+v", im)
	}

	src := NewFloatRaster(1, 2, 2)
	src.SetFloatValue(0, 0, 0, 0.2)
	src.SetFloatValue(0, 1, 1, 0.8)
	var buf bytes.Buffer
	if err := WriteBSQ(src, &buf); err != nil {
		t.Fatalf("bsq write failed: %v", err)
	}
	back, err := ReadBSQ(hdr, &buf)
	if err != nil {
		t.Fatalf("bsq read failed: %v", err)
	}
	if v := back.GetFloatValue(0, 1, 1); v != 0.8 {
		t.Errorf("bsq payload failed, expecting 0.8, actual %v", v)
	}
}

func TestCreateSpectralGeometry(t *testing.T) {
	res := NewFloatRaster(2, 2, 1)
	srcGeo := &Geometry{GeoTransform: []float64{0, 1, 0, 0, 0, -1}, Proj4: "+proj=longlat"}
	sg, err := CreateSpectralGeometry(srcGeo, res, &Presentation{Mode: PresentGrayscale}, nil)
	if err != nil {
		t.Fatalf("create spectral geometry failed: %v", err)
	}
	srcGeo.GeoTransform[0] = 99
	if sg.Geometry.GeoTransform[0] != 0 {
		t.Errorf("result geometry shares source geotransform storage")
	}

	if _, err := CreateSpectralGeometry(srcGeo, nil, nil, nil); err == nil {
		t.Errorf("nil result raster accepted")
	}
}
