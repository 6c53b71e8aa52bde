package raster

import (
	"fmt"
)

// Format describes the storage encoding of the pixel values
// of a raster. Integer rasters quantize values to int32 while
// floating rasters keep full float64 precision.
type Format int

const (
	Integer Format = iota
	Floating
)

func (f Format) String() string {
	switch f {
	case Integer:
		return "Integer"
	case Floating:
		return "Floating"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Raster is the uniform per-pixel access facade shared by the
// two storage representations. GetValue reads through the
// integer path and truncates for floating rasters. GetFloatValue
// preserves the stored precision for both representations.
type Raster interface {
	NumberOfBands() int
	NumberOfRows() int
	NumberOfColumns() int
	BitDepth() int
	Format() Format
	GetNoData() float64
	GetValue(row, col, band int) float64
	GetFloatValue(row, col, band int) float64
	SetFloatValue(row, col, band int, value float64)
}

// IntRaster stores quantized pixel values band-sequentially:
// cell (row, col, band) lives at Data[band*Rows*Cols + row*Cols + col].
type IntRaster struct {
	Data   []int32
	Height int
	Width  int
	Bands  int
	Depth  int
	NoData float64
}

func NewIntRaster(height, width, bands, depth int) *IntRaster {
	return &IntRaster{
		Data:   make([]int32, height*width*bands),
		Height: height,
		Width:  width,
		Bands:  bands,
		Depth:  depth,
	}
}

func (r *IntRaster) NumberOfBands() int   { return r.Bands }
func (r *IntRaster) NumberOfRows() int    { return r.Height }
func (r *IntRaster) NumberOfColumns() int { return r.Width }
func (r *IntRaster) BitDepth() int        { return r.Depth }
func (r *IntRaster) Format() Format       { return Integer }
func (r *IntRaster) GetNoData() float64   { return r.NoData }

func (r *IntRaster) GetValue(row, col, band int) float64 {
	return float64(r.Data[(band*r.Height+row)*r.Width+col])
}

func (r *IntRaster) GetFloatValue(row, col, band int) float64 {
	return float64(r.Data[(band*r.Height+row)*r.Width+col])
}

func (r *IntRaster) SetFloatValue(row, col, band int, value float64) {
	r.Data[(band*r.Height+row)*r.Width+col] = int32(value)
}

// FloatRaster stores pixel values as float64, band-sequentially
// with the same layout as IntRaster.
type FloatRaster struct {
	Data   []float64
	Height int
	Width  int
	Bands  int
	Depth  int
	NoData float64
}

func NewFloatRaster(height, width, bands int) *FloatRaster {
	return &FloatRaster{
		Data:   make([]float64, height*width*bands),
		Height: height,
		Width:  width,
		Bands:  bands,
		Depth:  64,
	}
}

func (r *FloatRaster) NumberOfBands() int   { return r.Bands }
func (r *FloatRaster) NumberOfRows() int    { return r.Height }
func (r *FloatRaster) NumberOfColumns() int { return r.Width }
func (r *FloatRaster) BitDepth() int        { return r.Depth }
func (r *FloatRaster) Format() Format       { return Floating }
func (r *FloatRaster) GetNoData() float64   { return r.NoData }

func (r *FloatRaster) GetValue(row, col, band int) float64 {
	return float64(int64(r.Data[(band*r.Height+row)*r.Width+col]))
}

func (r *FloatRaster) GetFloatValue(row, col, band int) float64 {
	return r.Data[(band*r.Height+row)*r.Width+col]
}

func (r *FloatRaster) SetFloatValue(row, col, band int, value float64) {
	r.Data[(band*r.Height+row)*r.Width+col] = value
}

// ValidateRaster checks a raster holds a consistent shape before it
// enters a pipeline stage.
func ValidateRaster(r Raster) error {
	if r == nil {
		return fmt.Errorf("raster is nil")
	}
	if r.NumberOfRows() <= 0 || r.NumberOfColumns() <= 0 {
		return fmt.Errorf("raster has empty extent: %dx%d", r.NumberOfRows(), r.NumberOfColumns())
	}
	if r.NumberOfBands() <= 0 {
		return fmt.Errorf("raster has no bands")
	}
	return nil
}
