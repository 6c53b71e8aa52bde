package raster

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"strings"

	"gopkg.in/yaml.v2"
)

// BSQHeader is the YAML sidecar describing a flat band-sequential
// raster file. The imaging block is optional; bands may declare a
// spectral domain, a wavelength range, or nothing at all.
type BSQHeader struct {
	Rows   int     `yaml:"rows"`
	Cols   int     `yaml:"cols"`
	Bands  int     `yaml:"bands"`
	Format string  `yaml:"format"`
	Depth  int     `yaml:"depth"`
	NoData float64 `yaml:"nodata"`

	Geo struct {
		Transform []float64 `yaml:"transform"`
		Proj4     string    `yaml:"proj4"`
	} `yaml:"geo"`

	Imaging []struct {
		Domain     string  `yaml:"domain"`
		Wavelength struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		} `yaml:"wavelength"`
	} `yaml:"imaging"`
}

// ParseBSQHeader decodes the YAML sidecar from r.
func ParseBSQHeader(r io.Reader) (*BSQHeader, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var hdr BSQHeader
	if err := yaml.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("invalid raster header: %v", err)
	}
	if hdr.Rows <= 0 || hdr.Cols <= 0 || hdr.Bands <= 0 {
		return nil, fmt.Errorf("raster header has empty extent: %dx%dx%d", hdr.Rows, hdr.Cols, hdr.Bands)
	}
	switch strings.ToLower(hdr.Format) {
	case "integer", "floating":
	default:
		return nil, fmt.Errorf("unknown raster format: %v", hdr.Format)
	}
	return &hdr, nil
}

// ImagingMetadata converts the per band imaging declarations of the
// header into positional Imaging sequences. Bands without a domain
// get Undefined; bands without a wavelength get a zero range.
func (hdr *BSQHeader) ImagingMetadata() *Imaging {
	if len(hdr.Imaging) == 0 {
		return nil
	}
	im := &Imaging{}
	for _, band := range hdr.Imaging {
		dom, ok := domainNames[strings.ToLower(band.Domain)]
		if !ok {
			dom = Undefined
		}
		im.Domains = append(im.Domains, dom)
		im.Ranges = append(im.Ranges, WavelengthRange{MinNm: band.Wavelength.Min, MaxNm: band.Wavelength.Max})
	}
	return im
}

// Geometry returns the geotransform declared by the header, if any.
func (hdr *BSQHeader) Geometry() *Geometry {
	if len(hdr.Geo.Transform) == 0 && len(hdr.Geo.Proj4) == 0 {
		return nil
	}
	return &Geometry{GeoTransform: hdr.Geo.Transform, Proj4: hdr.Geo.Proj4}
}

// ReadBSQ reads raster data laid out band-sequentially in little
// endian order, int32 cells for integer rasters and float64 cells
// for floating ones.
func ReadBSQ(hdr *BSQHeader, r io.Reader) (Raster, error) {
	n := hdr.Rows * hdr.Cols * hdr.Bands

	switch strings.ToLower(hdr.Format) {
	case "integer":
		out := NewIntRaster(hdr.Rows, hdr.Cols, hdr.Bands, hdr.Depth)
		out.NoData = hdr.NoData
		buf := make([]byte, 4)
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("short raster payload at cell %d: %v", i, err)
			}
			out.Data[i] = int32(binary.LittleEndian.Uint32(buf))
		}
		return out, nil

	case "floating":
		out := NewFloatRaster(hdr.Rows, hdr.Cols, hdr.Bands)
		out.NoData = hdr.NoData
		buf := make([]byte, 8)
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("short raster payload at cell %d: %v", i, err)
			}
			out.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown raster format: %v", hdr.Format)
}

// WriteBSQ writes the raster payload in the layout ReadBSQ expects.
func WriteBSQ(r Raster, w io.Writer) error {
	switch t := r.(type) {
	case *IntRaster:
		buf := make([]byte, 4)
		for _, v := range t.Data {
			binary.LittleEndian.PutUint32(buf, uint32(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		return nil
	case *FloatRaster:
		buf := make([]byte, 8)
		for _, v := range t.Data {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("raster type not implemented")
	}
}
