package utils

import (
	"testing"
)

func TestSISParamsChecker(t *testing.T) {
	compREMap := CompileSISRegexMap()

	params := map[string][]string{
		"service": {"SIS"},
		"request": {"GetIndex"},
		"index":   {"ndvi"},
		"dataset": {"landsat8_sample"},
		"palette": {"rdylgn"},
		"offset":  {"1.0"},
		"scale":   {"1"},
		"clip":    {"2"},
		"conc":    {"4"},
		"bands":   {"red=0,nir=3"},
	}

	sisParams, err := SISParamsChecker(params, compREMap)
	if err != nil {
		t.Fatalf("SIS parameter parsing failed: %v", err)
	}
	if sisParams.Service == nil || *sisParams.Service != "SIS" {
		t.Errorf("service not parsed: %v", sisParams.Service)
	}
	if sisParams.Request == nil || *sisParams.Request != "GetIndex" {
		t.Errorf("request not parsed: %v", sisParams.Request)
	}
	if sisParams.Index == nil || *sisParams.Index != "ndvi" {
		t.Errorf("index not parsed: %v", sisParams.Index)
	}
	if sisParams.Dataset == nil || *sisParams.Dataset != "landsat8_sample" {
		t.Errorf("dataset not parsed: %v", sisParams.Dataset)
	}
	if sisParams.Clip == nil || *sisParams.Clip != 2 {
		t.Errorf("clip not parsed: %v", sisParams.Clip)
	}
	if sisParams.Conc == nil || *sisParams.Conc != 4 {
		t.Errorf("conc not parsed: %v", sisParams.Conc)
	}
	if len(sisParams.Bands) != 2 || sisParams.Bands["red"] != 0 || sisParams.Bands["nir"] != 3 {
		t.Errorf("bands not parsed: %v", sisParams.Bands)
	}
}

func TestSISParamsCheckerDropsInvalid(t *testing.T) {
	compREMap := CompileSISRegexMap()

	params := map[string][]string{
		"service": {"WMS"},
		"request": {"GetMap"},
		"index":   {"NDVI"},
		"offset":  {"abc"},
	}

	sisParams, err := SISParamsChecker(params, compREMap)
	if err != nil {
		t.Fatalf("SIS parameter parsing failed: %v", err)
	}
	if sisParams.Service != nil {
		t.Errorf("invalid service accepted: %v", *sisParams.Service)
	}
	if sisParams.Request != nil {
		t.Errorf("invalid request accepted: %v", *sisParams.Request)
	}
	if sisParams.Index != nil {
		t.Errorf("invalid index accepted: %v", *sisParams.Index)
	}
	if sisParams.Offset != nil {
		t.Errorf("invalid offset accepted: %v", *sisParams.Offset)
	}
}

func TestSISParamsCheckerMalformedBands(t *testing.T) {
	compREMap := CompileSISRegexMap()

	for _, bands := range []string{"red", "red=", "=0", "red=0,", "Red=0"} {
		_, err := SISParamsChecker(map[string][]string{"bands": {bands}}, compREMap)
		if err == nil {
			t.Errorf("malformed bands accepted: %v", bands)
		}
	}
}

func TestSISParamsCheckerGeometry(t *testing.T) {
	compREMap := CompileSISRegexMap()

	geom := `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}}`
	sisParams, err := SISParamsChecker(map[string][]string{"geometry": {geom}}, compREMap)
	if err != nil {
		t.Fatalf("geometry parsing failed: %v", err)
	}
	if sisParams.Feature == nil {
		t.Fatalf("geometry not parsed")
	}
	if sisParams.Feature.Type != "Feature" {
		t.Errorf("feature type failed, expecting Feature, actual %v", sisParams.Feature.Type)
	}

	if _, err := SISParamsChecker(map[string][]string{"geometry": {"{not json"}}, compREMap); err == nil {
		t.Errorf("malformed geometry accepted")
	}
}

func TestCheckSISVersion(t *testing.T) {
	for _, version := range []string{"", "1.0.0"} {
		if !CheckSISVersion(version) {
			t.Errorf("version rejected: %q", version)
		}
	}
	for _, version := range []string{"1.0", "2.0.0"} {
		if CheckSISVersion(version) {
			t.Errorf("version accepted: %q", version)
		}
	}
}
