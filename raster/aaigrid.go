package raster

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadAAIGrid parses a single band Esri ASCII grid into a
// FloatRaster. Header keys are case insensitive; both the
// xllcorner/yllcorner and xllcenter/yllcenter conventions are
// accepted. The grid becomes band 0 of the returned raster and the
// cell size is folded into the geotransform.
func ReadAAIGrid(r io.Reader) (*FloatRaster, *Geometry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := map[string]float64{}
	var values []float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 && isHeaderKey(strings.ToLower(fields[0])) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid header value %q: %v", line, err)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid grid value %q: %v", f, err)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	ncols, okC := header["ncols"]
	nrows, okR := header["nrows"]
	if !okC || !okR {
		return nil, nil, fmt.Errorf("grid header missing ncols/nrows")
	}
	rows, cols := int(nrows), int(ncols)
	if rows <= 0 || cols <= 0 {
		return nil, nil, fmt.Errorf("grid header has empty extent: %dx%d", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, nil, fmt.Errorf("grid has %d values, expected %d", len(values), rows*cols)
	}

	out := NewFloatRaster(rows, cols, 1)
	copy(out.Data, values)
	if noData, ok := header["nodata_value"]; ok {
		out.NoData = noData
	}

	cellSize := header["cellsize"]
	originX, okX := header["xllcorner"]
	if !okX {
		originX = header["xllcenter"] - cellSize/2
	}
	originY, okY := header["yllcorner"]
	if !okY {
		originY = header["yllcenter"] - cellSize/2
	}
	geo := &Geometry{
		GeoTransform: []float64{originX, cellSize, 0, originY + float64(rows)*cellSize, 0, -cellSize},
	}
	return out, geo, nil
}

func isHeaderKey(key string) bool {
	switch key {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}
