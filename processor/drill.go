package processor

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/nci/spectral/raster"
)

// DrillResult aggregates a computed index raster over a region of
// interest: per output band, the mean and the number of cells that
// contributed to it. NoData cells never contribute.
type DrillResult struct {
	Identifier string
	Bands      []string
	Means      []float64
	Counts     []int
}

// Drill reduces a result raster to per band statistics. A nil mask
// aggregates the full extent. Bands are named after the false
// colour assignment when the presentation declares one.
func Drill(identifier string, sg *raster.SpectralGeometry, mask *image.Gray) (*DrillResult, error) {
	if sg == nil || sg.Raster == nil {
		return nil, fmt.Errorf("drill: result raster is nil")
	}
	r := sg.Raster
	nBands := r.NumberOfBands()

	out := &DrillResult{Identifier: identifier}
	for b := 0; b < nBands; b++ {
		name := fmt.Sprintf("band_%d", b)
		if sg.Presentation != nil && b < len(sg.Presentation.BandAssignment) {
			name = sg.Presentation.BandAssignment[b]
		}
		out.Bands = append(out.Bands, name)
	}

	noData := r.GetNoData()
	totals := make([]float64, nBands)
	counts := make([]int, nBands)
	for row := 0; row < r.NumberOfRows(); row++ {
		for col := 0; col < r.NumberOfColumns(); col++ {
			if mask != nil && mask.GrayAt(col, row).Y == 0 {
				continue
			}
			for b := 0; b < nBands; b++ {
				v := r.GetFloatValue(row, col, b)
				if math.IsNaN(v) || v == noData {
					continue
				}
				totals[b] += v
				counts[b]++
			}
		}
	}

	for b := 0; b < nBands; b++ {
		mean := math.NaN()
		if counts[b] > 0 {
			mean = totals[b] / float64(counts[b])
		}
		out.Means = append(out.Means, mean)
		out.Counts = append(out.Counts, counts[b])
	}
	return out, nil
}

// ToCSV renders the aggregation as one header line plus one row per
// band.
func (dr *DrillResult) ToCSV() string {
	var csv strings.Builder
	fmt.Fprintf(&csv, "index,band,mean,count\n")
	for b, name := range dr.Bands {
		fmt.Fprintf(&csv, "%s,%s", dr.Identifier, name)
		if math.IsNaN(dr.Means[b]) {
			fmt.Fprint(&csv, ",")
		} else {
			fmt.Fprintf(&csv, ",%f", dr.Means[b])
		}
		fmt.Fprintf(&csv, ",%d\n", dr.Counts[b])
	}
	return csv.String()
}
