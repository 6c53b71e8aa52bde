package utils

import (
	"fmt"
	"image/color"
)

// Palette is a list of control colours optionally interpolated
// into a 256 colour ramp.
type Palette struct {
	Interpolate bool         `json:"interpolate"`
	Colours     []color.RGBA `json:"colours"`
}

// InterpolateUint8 interpolates the value of a
// byte between two numbers 'a' and 'b' by
// especifying a length and a position 'i'
// along that length.
func InterpolateUint8(a, b uint8, i, sectionLength int) uint8 {
	return a + uint8((i * (int(b) - int(a)) / sectionLength))
}

// InterpolateColor returns an RGBA color where
// the R, G, B, and A components have been
// interpolated from the 'a' and 'b' colors
func InterpolateColor(a, b color.RGBA, i, sectionLength int) color.RGBA {
	return color.RGBA{InterpolateUint8(a.R, b.R, i, sectionLength),
		InterpolateUint8(a.G, b.G, i, sectionLength),
		InterpolateUint8(a.B, b.B, i, sectionLength),
		255}
}

// GradientRGBAPalette returns a palette of 256 colors
// creating an interpolation that goes though
// a list of provided colours.
func GradientRGBAPalette(palette *Palette) ([]color.RGBA, error) {
	if palette == nil {
		return nil, nil
	}
	if len(palette.Colours) < 2 {
		return nil, fmt.Errorf("palette must contain at least 2 colours")
	}

	ramp := make([]color.RGBA, 256)

	if palette.Interpolate {
		bins := len(palette.Colours) - 1
		sectionLength := 256 / bins
		bonus := 256 - (sectionLength * bins)
		bonusArr := make([]int, bins)
		for i := 0; i < bonus; i++ {
			bonusArr[i] = 1
		}

		index := 0
		for section, upperColour := range palette.Colours[1:] {
			for i := 0; i < sectionLength+bonusArr[section]; i++ {
				ramp[index] = InterpolateColor(palette.Colours[section], upperColour, i, sectionLength)
				index++
			}
		}
	} else {
		bins := len(palette.Colours)
		sectionLength := 256 / bins
		bonus := 256 - (sectionLength * bins)
		bonusArr := make([]int, bins)
		for i := 0; i < bonus; i++ {
			bonusArr[i] = 1
		}

		index := 0
		for section, colour := range palette.Colours {
			for i := 0; i < sectionLength+bonusArr[section]; i++ {
				ramp[index] = colour
				index++
			}
		}
	}

	return ramp, nil
}

// The built in presentation palettes referenced by the index
// formulas. Config files may add more or override these.
var builtinPalettes = map[string]*Palette{
	"grayscale": {
		Interpolate: true,
		Colours: []color.RGBA{
			{0, 0, 0, 255},
			{255, 255, 255, 255},
		},
	},
	"rdylgn": {
		Interpolate: true,
		Colours: []color.RGBA{
			{215, 25, 28, 255},
			{253, 174, 97, 255},
			{255, 255, 191, 255},
			{166, 217, 106, 255},
			{26, 150, 65, 255},
		},
	},
	"blues": {
		Interpolate: true,
		Colours: []color.RGBA{
			{247, 251, 255, 255},
			{107, 174, 214, 255},
			{8, 48, 107, 255},
		},
	},
	"inferno": {
		Interpolate: true,
		Colours: []color.RGBA{
			{0, 0, 4, 255},
			{120, 28, 109, 255},
			{237, 105, 37, 255},
			{252, 255, 164, 255},
		},
	},
}

// NamedPalette returns a built in palette by name.
func NamedPalette(name string) (*Palette, error) {
	p, ok := builtinPalettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette: %v", name)
	}
	return p, nil
}
