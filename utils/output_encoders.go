package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// EncodePNG renders scaled presentation bands as a PNG. One band is
// drawn through the palette ramp, three bands as an RGB composite.
// Cells flagged 0xFF stay transparent.
func EncodePNG(br []*ByteRaster, palette *Palette) ([]byte, error) {
	buf := new(bytes.Buffer)
	if len(br) == 0 || br[0] == nil {
		return buf.Bytes(), fmt.Errorf("no bands to encode")
	}
	canvas := image.NewRGBA(image.Rect(0, 0, br[0].Width, br[0].Height))

	switch len(br) {
	case 1:
		plt, err := GradientRGBAPalette(palette)
		if err != nil {
			return buf.Bytes(), err
		}
		if plt == nil {
			if plt, err = GradientRGBAPalette(builtinPalettes["grayscale"]); err != nil {
				return buf.Bytes(), err
			}
		}

		for x := 0; x < br[0].Width; x++ {
			for y := 0; y < br[0].Height; y++ {
				if br[0].Data[y*br[0].Width+x] != 0xFF {
					canvas.Set(x, y, plt[br[0].Data[y*br[0].Width+x]])
				}
			}
		}

	case 3:
		rasterR := br[0]
		rasterG := br[1]
		rasterB := br[2]

		if rasterR == nil || rasterG == nil || rasterB == nil {
			return []byte{}, fmt.Errorf("At least one of the bands is nil")
		}

		var start int
		for i := 0; i < rasterR.Width*rasterR.Height; i++ {
			if rasterR.Data[i] != 0xFF || rasterG.Data[i] != 0xFF || rasterB.Data[i] != 0xFF {
				start = i * 4
				canvas.Pix[start] = rasterR.Data[i]
				canvas.Pix[start+1] = rasterG.Data[i]
				canvas.Pix[start+2] = rasterB.Data[i]
				canvas.Pix[start+3] = 0xff
			}
		}

	default:
		return []byte{}, fmt.Errorf("Cannot encode other than 1 or 3 bands into a PNG: Received %d", len(br))
	}

	err := png.Encode(buf, canvas)

	return buf.Bytes(), err
}

// ValidateByteRasterSlice checks all presentation bands share one
// extent and returns it.
func ValidateByteRasterSlice(rs []*ByteRaster) (int, int, error) {
	var width, height int
	for i, r := range rs {
		if r == nil {
			return 0, 0, fmt.Errorf("band %d is nil", i)
		}
		if i == 0 {
			width, height = r.Width, r.Height
			continue
		}
		if r.Width != width || r.Height != height {
			return 0, 0, fmt.Errorf("band %d extent %dx%d does not match %dx%d", i, r.Height, r.Width, height, width)
		}
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("empty extent: %dx%d", height, width)
	}
	return width, height, nil
}
