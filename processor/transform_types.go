package processor

import (
	"fmt"

	"github.com/nci/spectral/params"
	"github.com/nci/spectral/raster"
)

// BandRequirement declares one source band a formula needs and the
// three tier policy used to resolve its index: explicit parameter
// binding, then imaging metadata lookup (by spectral domain or by
// wavelength range), then the hard coded positional default. A
// Default of -1 disables the last tier so the imaging metadata must
// supply the band.
type BandRequirement struct {
	Role      string
	Parameter *params.Parameter
	Domain    raster.Domain
	Match     func(raster.WavelengthRange) bool
	MatchDesc string
	Default   int
}

// DomainBand builds a requirement resolved through a spectral
// domain with a positional fallback.
func DomainBand(role string, p *params.Parameter, domain raster.Domain, def int) BandRequirement {
	return BandRequirement{Role: role, Parameter: p, Domain: domain, Default: def}
}

// WavelengthBand builds a requirement for a narrow band centred at
// nm with no positional fallback: the band has to come from an
// explicit binding or from the imaging metadata. The match
// predicate carries the boundary inclusivity of the owning formula.
func WavelengthBand(nm int, match func(raster.WavelengthRange) bool) BandRequirement {
	return BandRequirement{
		Role:      fmt.Sprintf("b%dnm", nm),
		Parameter: params.BandAt(nm),
		Match:     match,
		MatchDesc: fmt.Sprintf("%dnm", nm),
		Default:   -1,
	}
}

// ResultSpec fixes the shape of a formula's output raster: storage
// format, band count, per band bit depth and presentation. It is
// consulted exactly once per transformation, before any pixel is
// computed.
type ResultSpec struct {
	Format       raster.Format
	Bands        int
	Depth        int
	Presentation raster.Presentation
}

// Formula is one spectral index as data: the shared engine runs the
// evaluation function over every pixel with the resolved band
// values, in requirement order, plus the resolved coefficient
// values. Eval must be pure and total; degenerate denominators are
// masked to zero inside the formula, never surfaced as NaN.
type Formula struct {
	Identifier   string
	Name         string
	Bands        []BandRequirement
	Coefficients []*params.Parameter
	Result       ResultSpec
	InPlace      bool
	Eval         func(bands, coef []float64) []float64
}

// NullSourceError reports a transformation constructed without a
// source raster.
type NullSourceError struct{}

func (e *NullSourceError) Error() string {
	return "source raster is null"
}

// InPlaceNotSupportedError reports source and result referring to
// the same raster for a formula without in place support.
type InPlaceNotSupportedError struct {
	Identifier string
}

func (e *InPlaceNotSupportedError) Error() string {
	return fmt.Sprintf("%s does not support in-place operation", e.Identifier)
}

// InvalidSourceDataError reports imaging metadata that does not
// contain the band data a formula requires.
type InvalidSourceDataError struct {
	Identifier string
	Reason     string
}

func (e *InvalidSourceDataError) Error() string {
	return fmt.Sprintf("%s: source does not contain required data: %s", e.Identifier, e.Reason)
}

// OutOfRangeBandIndexError reports a resolved band index outside
// the band range of the source raster.
type OutOfRangeBandIndexError struct {
	Identifier    string
	Role          string
	Index         int
	NumberOfBands int
}

func (e *OutOfRangeBandIndexError) Error() string {
	return fmt.Sprintf("%s: band index %d for %s outside [0, %d)", e.Identifier, e.Index, e.Role, e.NumberOfBands)
}
