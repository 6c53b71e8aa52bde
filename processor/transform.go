package processor

import (
	"fmt"
	"image"
	"math"

	"github.com/nci/spectral/params"
	"github.com/nci/spectral/raster"

	"golang.org/x/net/context"
)

// Transformation is one validated invocation of a spectral formula
// over a source raster. All parameter and band resolution happens
// in NewTransformation; a constructed instance computes any in
// range pixel without runtime failure. Instances are single use:
// run once, read the result, discard.
type Transformation struct {
	formula   *Formula
	source    raster.Raster
	result    raster.Raster
	sourceGeo *raster.Geometry
	imaging   *raster.Imaging
	bandIdx   []int
	coef      []float64
	bands     []string
	mask      *image.Gray
	resultGeo *raster.SpectralGeometry
}

// NewTransformation resolves and validates every input of a
// formula invocation. result may be nil, in which case Run
// allocates the output raster according to the formula's result
// spec. imaging may be nil when every band comes from an explicit
// binding or a positional default.
func NewTransformation(f *Formula, source, result raster.Raster, imaging *raster.Imaging, bindings params.Bindings) (*Transformation, error) {
	if f == nil {
		return nil, fmt.Errorf("formula is nil")
	}
	if source == nil {
		return nil, &NullSourceError{}
	}
	if result != nil && source == result && !f.InPlace {
		return nil, &InPlaceNotSupportedError{Identifier: f.Identifier}
	}
	if result != nil {
		if result.NumberOfRows() != source.NumberOfRows() || result.NumberOfColumns() != source.NumberOfColumns() {
			return nil, fmt.Errorf("%s: result extent %dx%d does not match source %dx%d",
				f.Identifier, result.NumberOfRows(), result.NumberOfColumns(), source.NumberOfRows(), source.NumberOfColumns())
		}
		if result.NumberOfBands() != f.Result.Bands {
			return nil, fmt.Errorf("%s: result has %d bands, formula produces %d",
				f.Identifier, result.NumberOfBands(), f.Result.Bands)
		}
		if result.Format() != f.Result.Format {
			return nil, fmt.Errorf("%s: result format %v, formula produces %v",
				f.Identifier, result.Format(), f.Result.Format)
		}
		if result.BitDepth() != f.Result.Depth {
			return nil, fmt.Errorf("%s: result bit depth %d, formula produces %d",
				f.Identifier, result.BitDepth(), f.Result.Depth)
		}
	}
	if bindings == nil {
		bindings = params.Bindings{}
	}

	t := &Transformation{
		formula: f,
		source:  source,
		result:  result,
		imaging: imaging,
	}

	for _, req := range f.Bands {
		idx, err := resolveBandIndex(f, req, imaging, bindings)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= source.NumberOfBands() {
			return nil, &OutOfRangeBandIndexError{
				Identifier:    f.Identifier,
				Role:          req.Role,
				Index:         idx,
				NumberOfBands: source.NumberOfBands(),
			}
		}
		t.bandIdx = append(t.bandIdx, idx)
		t.bands = append(t.bands, req.Role)
	}

	for _, p := range f.Coefficients {
		v, err := bindings.ResolveFloat(p, 0)
		if err != nil {
			return nil, err
		}
		t.coef = append(t.coef, v)
	}

	return t, nil
}

// resolveBandIndex walks the three tiers of one band requirement.
// An explicit binding always wins, including over broken imaging
// metadata. The positional default only applies when the
// requirement declares one; otherwise missing metadata is a
// construction failure.
func resolveBandIndex(f *Formula, req BandRequirement, imaging *raster.Imaging, bindings params.Bindings) (int, error) {
	if req.Parameter != nil && bindings.IsProvided(req.Parameter) {
		return bindings.ResolveInt(req.Parameter, 0)
	}

	if req.Domain != raster.Undefined {
		if idx := imaging.DomainIndex(req.Domain); idx >= 0 {
			return idx, nil
		}
	}
	if req.Match != nil {
		if idx := imaging.RangeIndex(req.Match); idx >= 0 {
			return idx, nil
		}
	}

	if req.Default >= 0 {
		return req.Default, nil
	}

	reason := fmt.Sprintf("no band for %s", req.Role)
	if req.Domain != raster.Undefined {
		reason = fmt.Sprintf("no band in domain %s", req.Domain)
	} else if len(req.MatchDesc) > 0 {
		reason = fmt.Sprintf("no band at %s", req.MatchDesc)
	}
	return 0, &InvalidSourceDataError{Identifier: f.Identifier, Reason: reason}
}

// SetSourceGeometry attaches the ground geometry of the source so
// the result geometry can inherit it.
func (t *Transformation) SetSourceGeometry(geo *raster.Geometry) {
	t.sourceGeo = geo
}

// SetMask restricts the computation to cells where the mask is non
// zero. Masked out cells receive the result NoData value.
func (t *Transformation) SetMask(mask *image.Gray) error {
	if mask == nil {
		t.mask = nil
		return nil
	}
	b := mask.Bounds()
	if b.Dx() != t.source.NumberOfColumns() || b.Dy() != t.source.NumberOfRows() {
		return fmt.Errorf("%s: mask extent %dx%d does not match source %dx%d",
			t.formula.Identifier, b.Dy(), b.Dx(), t.source.NumberOfRows(), t.source.NumberOfColumns())
	}
	t.mask = mask
	return nil
}

// BandIndices returns the resolved source band index per
// requirement, in requirement order.
func (t *Transformation) BandIndices() []int {
	out := make([]int, len(t.bandIdx))
	copy(out, t.bandIdx)
	return out
}

// sourceValue is the single dispatch point over the source storage
// representation: integer rasters read through the quantized
// accessor, floating rasters keep full precision.
func (t *Transformation) sourceValue(row, col, band int) float64 {
	if t.source.Format() == raster.Integer {
		return t.source.GetValue(row, col, band)
	}
	return t.source.GetFloatValue(row, col, band)
}

// ComputeFloatBands evaluates the formula at one pixel and returns
// all output band values. Pure: reads the source raster, writes
// nothing.
func (t *Transformation) ComputeFloatBands(row, col int) []float64 {
	values := make([]float64, len(t.bandIdx))
	for i, idx := range t.bandIdx {
		values[i] = t.sourceValue(row, col, idx)
	}
	return t.formula.Eval(values, t.coef)
}

// ComputeFloat evaluates the formula at one pixel and returns the
// value of one output band.
func (t *Transformation) ComputeFloat(row, col, band int) float64 {
	return t.ComputeFloatBands(row, col)[band]
}

// prepareResult fixes the output raster shape once, before any
// pixel is computed. The allocated raster is mutated afterwards but
// never resized.
func (t *Transformation) prepareResult() (*raster.SpectralGeometry, error) {
	if t.resultGeo != nil {
		return t.resultGeo, nil
	}

	if t.result == nil {
		spec := t.formula.Result
		switch spec.Format {
		case raster.Integer:
			out := raster.NewIntRaster(t.source.NumberOfRows(), t.source.NumberOfColumns(), spec.Bands, spec.Depth)
			t.result = out
		default:
			out := raster.NewFloatRaster(t.source.NumberOfRows(), t.source.NumberOfColumns(), spec.Bands)
			out.NoData = math.NaN()
			t.result = out
		}
	}

	presentation := t.formula.Result.Presentation
	resultGeo, err := raster.CreateSpectralGeometry(t.sourceGeo, t.result, &presentation, t.imaging)
	if err != nil {
		return nil, err
	}
	t.resultGeo = resultGeo
	return resultGeo, nil
}

// Run computes every output pixel sequentially and returns the
// result raster bound to its geometry and presentation.
func (t *Transformation) Run() (*raster.SpectralGeometry, error) {
	resultGeo, err := t.prepareResult()
	if err != nil {
		return nil, err
	}

	rows := t.source.NumberOfRows()
	cols := t.source.NumberOfColumns()
	for row := 0; row < rows; row++ {
		t.computeRow(row, cols)
	}
	return resultGeo, nil
}

// RunConc computes rows concurrently, concLevel at a time. Per
// pixel computation is read only on the source and write once on
// the result, so row partitions need no locking. Cancellation is
// checked between rows.
func (t *Transformation) RunConc(ctx context.Context, concLevel int) (*raster.SpectralGeometry, error) {
	resultGeo, err := t.prepareResult()
	if err != nil {
		return nil, err
	}
	if concLevel < 1 {
		concLevel = 1
	}

	rows := t.source.NumberOfRows()
	cols := t.source.NumberOfColumns()
	cLimiter := NewConcLimiter(concLevel)
	for row := 0; row < rows; row++ {
		select {
		case <-ctx.Done():
			cLimiter.Wait()
			return nil, fmt.Errorf("transformation cancelled: %v", ctx.Err())
		default:
			row := row
			cLimiter.Go(func() {
				t.computeRow(row, cols)
			})
		}
	}
	cLimiter.Wait()
	return resultGeo, nil
}

func (t *Transformation) computeRow(row, cols int) {
	nBands := t.formula.Result.Bands
	noData := t.result.GetNoData()
	for col := 0; col < cols; col++ {
		if t.mask != nil && t.mask.GrayAt(col, row).Y == 0 {
			for b := 0; b < nBands; b++ {
				t.result.SetFloatValue(row, col, b, noData)
			}
			continue
		}
		out := t.ComputeFloatBands(row, col)
		for b := 0; b < nBands; b++ {
			t.result.SetFloatValue(row, col, b, out[b])
		}
	}
}
