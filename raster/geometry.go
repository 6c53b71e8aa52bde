package raster

import (
	"fmt"
)

// Geometry ties a raster to the ground: an affine geotransform in
// the GDAL convention plus an opaque projection string. The CRS is
// carried through untouched, never interpreted here.
type Geometry struct {
	GeoTransform []float64
	Proj4        string
}

// PresentationMode selects how output bands map to a viewable
// colour model.
type PresentationMode int

const (
	PresentGrayscale PresentationMode = iota
	PresentFalseColour
)

// Presentation declares the colour mapping of a result raster.
// For false colour, BandAssignment names the output band feeding
// each colour channel in R, G, B order.
type Presentation struct {
	Mode           PresentationMode
	PaletteName    string
	BandAssignment []string
}

// SpectralGeometry is a result raster bound to its geometry,
// presentation and imaging metadata. It is constructed exactly
// once per transformation and never mutated afterwards.
type SpectralGeometry struct {
	Raster       Raster
	Geometry     *Geometry
	Presentation *Presentation
	Imaging      *Imaging
}

// CreateSpectralGeometry is the sole construction point for output
// geometry. The result raster inherits the source geotransform and
// projection; presentation and imaging describe the new bands, not
// the source ones.
func CreateSpectralGeometry(sourceGeo *Geometry, result Raster, presentation *Presentation, imaging *Imaging) (*SpectralGeometry, error) {
	if result == nil {
		return nil, fmt.Errorf("result raster is nil")
	}
	if err := ValidateRaster(result); err != nil {
		return nil, err
	}
	var geo *Geometry
	if sourceGeo != nil {
		gt := make([]float64, len(sourceGeo.GeoTransform))
		copy(gt, sourceGeo.GeoTransform)
		geo = &Geometry{GeoTransform: gt, Proj4: sourceGeo.Proj4}
	}
	return &SpectralGeometry{
		Raster:       result,
		Geometry:     geo,
		Presentation: presentation,
		Imaging:      imaging,
	}, nil
}
