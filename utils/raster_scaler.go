package utils

import (
	"fmt"
	"math"

	"github.com/nci/spectral/raster"
)

// ByteRaster is one 8 bit presentation band. NoData cells are
// flagged with 0xFF so the encoder can map them to transparency.
type ByteRaster struct {
	Data   []uint8
	Height int
	Width  int
	NoData float64
}

type ScaleParams struct {
	Offset float64
	Scale  float64
	Clip   float64
}

// scaleBand quantizes one band of a computed index raster to bytes.
// Values are shifted by Offset, clipped to [0, Clip] and mapped
// onto [0, 254]; 255 stays reserved for NoData.
func scaleBand(r raster.Raster, band int, params ScaleParams) (*ByteRaster, error) {
	if band < 0 || band >= r.NumberOfBands() {
		return nil, fmt.Errorf("scale band %d outside [0, %d)", band, r.NumberOfBands())
	}
	if params.Clip <= 0 {
		return nil, fmt.Errorf("scale clip must be positive, got %v", params.Clip)
	}
	scale := params.Scale
	if scale <= 0 {
		scale = 1
	}

	rows := r.NumberOfRows()
	cols := r.NumberOfColumns()
	out := &ByteRaster{Data: make([]uint8, rows*cols), Height: rows, Width: cols, NoData: r.GetNoData()}

	noData := r.GetNoData()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			value := r.GetFloatValue(row, col, band)
			if math.IsNaN(value) || value == noData {
				out.Data[row*cols+col] = 0xFF
				continue
			}
			value = (value + params.Offset) * scale
			if value < 0 {
				value = 0
			}
			if value > params.Clip {
				value = params.Clip
			}
			out.Data[row*cols+col] = uint8(value * 254.0 / params.Clip)
		}
	}
	return out, nil
}

// Scale quantizes every band of a result raster with the same scale
// parameters.
func Scale(r raster.Raster, params ScaleParams) ([]*ByteRaster, error) {
	if err := raster.ValidateRaster(r); err != nil {
		return nil, err
	}
	out := make([]*ByteRaster, r.NumberOfBands())
	for band := range out {
		br, err := scaleBand(r, band, params)
		if err != nil {
			return out, err
		}
		out[band] = br
	}
	return out, nil
}
