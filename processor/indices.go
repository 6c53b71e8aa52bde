package processor

import (
	"math"
	"sync"

	"github.com/nci/spectral/params"
	"github.com/nci/spectral/raster"
)

// safeDiv masks a degenerate denominator to an exact zero result.
// The zero policy is deliberate: per pixel evaluation never yields
// NaN or Inf, whatever the input values.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// safeRecipDiff computes 1/a - 1/b with the same zero policy: a
// zero in either term zeroes the whole result.
func safeRecipDiff(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return 1/a - 1/b
}

func grayscale(palette string) raster.Presentation {
	return raster.Presentation{Mode: raster.PresentGrayscale, PaletteName: palette}
}

func scalarResult(palette string) ResultSpec {
	return ResultSpec{Format: raster.Floating, Bands: 1, Depth: 64, Presentation: grayscale(palette)}
}

func scalar(f func(v, c []float64) float64) func(v, c []float64) []float64 {
	return func(v, c []float64) []float64 {
		return []float64{f(v, c)}
	}
}

var (
	indicesOnce sync.Once
	indices     []*Formula
	indicesByID map[string]*Formula
)

// Indices returns the catalog of built in index formulas, built
// once and cached for the lifetime of the process.
func Indices() []*Formula {
	buildIndices()
	out := make([]*Formula, len(indices))
	copy(out, indices)
	return out
}

// IndexByIdentifier returns the built in formula with the given
// identifier, or nil.
func IndexByIdentifier(identifier string) *Formula {
	buildIndices()
	return indicesByID[identifier]
}

func buildIndices() {
	indicesOnce.Do(func() {
		indices = makeIndices()
		indicesByID = map[string]*Formula{}
		for _, f := range indices {
			indicesByID[f.Identifier] = f
		}
	})
}

func makeIndices() []*Formula {
	blue := params.Get("index_of_blue_band")
	green := params.Get("index_of_green_band")
	red := params.Get("index_of_red_band")
	nir := params.Get("index_of_near_infrared_band")
	swir := params.Get("index_of_short_wavelength_infrared_band")
	swir2 := params.Get("index_of_second_short_wavelength_infrared_band")

	// The broad band indices fall back to fixed band positions when
	// the imaging metadata carries no domains; the narrow band ones
	// never do. The wavelength matching inclusivity differs between
	// formula families and is kept as found: the pigment and
	// physiology indices match any band containing the wavelength,
	// the red edge family requires the band interval to sit inside
	// a 10nm window below the next decade.
	contain := raster.RangeContaining
	window := func(nm int) func(raster.WavelengthRange) bool {
		return raster.RangeWithin(float64(nm), float64(nm+10))
	}

	return []*Formula{
		{
			Identifier: "sr",
			Name:       "Simple Ratio Index",
			Bands: []BandRequirement{
				DomainBand("red", red, raster.Red, 0),
				DomainBand("nir", nir, raster.NearInfrared, 1),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1], v[0])
			}),
		},
		{
			Identifier: "ndvi",
			Name:       "Normalized Difference Vegetation Index",
			Bands: []BandRequirement{
				DomainBand("red", red, raster.Red, 0),
				DomainBand("nir", nir, raster.NearInfrared, 1),
			},
			Result: scalarResult("rdylgn"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1]-v[0], v[1]+v[0])
			}),
		},
		{
			Identifier: "gndvi",
			Name:       "Green Normalized Difference Vegetation Index",
			Bands: []BandRequirement{
				DomainBand("green", green, raster.Green, 0),
				DomainBand("nir", nir, raster.NearInfrared, 1),
			},
			Result: scalarResult("rdylgn"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1]-v[0], v[1]+v[0])
			}),
		},
		{
			Identifier: "evi",
			Name:       "Enhanced Vegetation Index",
			Bands: []BandRequirement{
				DomainBand("blue", blue, raster.Blue, 0),
				DomainBand("red", red, raster.Red, 1),
				DomainBand("nir", nir, raster.NearInfrared, 2),
			},
			Coefficients: []*params.Parameter{
				params.Get("gain_factor"),
				params.Get("aerosol_resistance_coefficient_1"),
				params.Get("aerosol_resistance_coefficient_2"),
				params.Get("canopy_background_adjustment"),
			},
			Result: scalarResult("rdylgn"),
			Eval: scalar(func(v, c []float64) float64 {
				g, c1, c2, l := c[0], c[1], c[2], c[3]
				return safeDiv(g*(v[2]-v[1]), v[2]+c1*v[1]-c2*v[0]+l)
			}),
		},
		{
			Identifier: "savi",
			Name:       "Soil Adjusted Vegetation Index",
			Bands: []BandRequirement{
				DomainBand("red", red, raster.Red, 0),
				DomainBand("nir", nir, raster.NearInfrared, 1),
			},
			Coefficients: []*params.Parameter{
				params.Get("soil_adjustment_factor"),
			},
			Result: scalarResult("rdylgn"),
			Eval: scalar(func(v, c []float64) float64 {
				l := c[0]
				return safeDiv((1+l)*(v[1]-v[0]), v[1]+v[0]+l)
			}),
		},
		{
			Identifier: "msavi",
			Name:       "Modified Soil Adjusted Vegetation Index",
			Bands: []BandRequirement{
				DomainBand("red", red, raster.Red, 0),
				DomainBand("nir", nir, raster.NearInfrared, 1),
			},
			Result: scalarResult("rdylgn"),
			Eval: scalar(func(v, c []float64) float64 {
				d := (2*v[1]+1)*(2*v[1]+1) - 8*(v[1]-v[0])
				if d < 0 {
					return 0
				}
				return (2*v[1] + 1 - math.Sqrt(d)) / 2
			}),
		},
		{
			Identifier: "ndwi",
			Name:       "Normalized Difference Water Index",
			Bands: []BandRequirement{
				DomainBand("green", green, raster.Green, 0),
				DomainBand("nir", nir, raster.NearInfrared, 1),
			},
			Result: scalarResult("blues"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0]-v[1], v[0]+v[1])
			}),
		},
		{
			Identifier: "mndwi",
			Name:       "Modified Normalized Difference Water Index",
			Bands: []BandRequirement{
				DomainBand("green", green, raster.Green, 0),
				DomainBand("swir", swir, raster.ShortWavelengthInfrared, 1),
			},
			Result: scalarResult("blues"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0]-v[1], v[0]+v[1])
			}),
		},
		{
			Identifier: "ndsi",
			Name:       "Normalized Difference Snow Index",
			Bands: []BandRequirement{
				DomainBand("green", green, raster.Green, 0),
				DomainBand("swir", swir, raster.ShortWavelengthInfrared, 1),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0]-v[1], v[0]+v[1])
			}),
		},
		{
			Identifier: "msi",
			Name:       "Moisture Stress Index",
			Bands: []BandRequirement{
				DomainBand("nir", nir, raster.NearInfrared, 0),
				DomainBand("swir", swir, raster.ShortWavelengthInfrared, 1),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1], v[0])
			}),
		},
		{
			Identifier: "nbr",
			Name:       "Normalized Burn Ratio",
			Bands: []BandRequirement{
				DomainBand("nir", nir, raster.NearInfrared, 0),
				DomainBand("swir", swir, raster.ShortWavelengthInfrared, 1),
			},
			Result: scalarResult("inferno"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0]-v[1], v[0]+v[1])
			}),
		},
		{
			Identifier: "nbr2",
			Name:       "Normalized Burn Ratio 2",
			Bands: []BandRequirement{
				DomainBand("swir", swir, raster.ShortWavelengthInfrared, 0),
				DomainBand("swir2", swir2, raster.MidWavelengthInfrared, 1),
			},
			Result: scalarResult("inferno"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0]-v[1], v[0]+v[1])
			}),
		},
		{
			Identifier: "pri",
			Name:       "Photochemical Reflectance Index",
			Bands: []BandRequirement{
				WavelengthBand(531, contain(531)),
				WavelengthBand(570, contain(570)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0]-v[1], v[0]+v[1])
			}),
		},
		{
			Identifier: "ari1",
			Name:       "Anthocyanin Reflectance Index 1",
			Bands: []BandRequirement{
				WavelengthBand(550, contain(550)),
				WavelengthBand(700, contain(700)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeRecipDiff(v[0], v[1])
			}),
		},
		{
			Identifier: "ari2",
			Name:       "Anthocyanin Reflectance Index 2",
			Bands: []BandRequirement{
				WavelengthBand(550, contain(550)),
				WavelengthBand(700, contain(700)),
				WavelengthBand(800, contain(800)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return v[2] * safeRecipDiff(v[0], v[1])
			}),
		},
		{
			Identifier: "cri550",
			Name:       "Carotenoid Reflectance Index 550",
			Bands: []BandRequirement{
				WavelengthBand(510, contain(510)),
				WavelengthBand(550, contain(550)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeRecipDiff(v[0], v[1])
			}),
		},
		{
			Identifier: "cri700",
			Name:       "Carotenoid Reflectance Index 700",
			Bands: []BandRequirement{
				WavelengthBand(510, contain(510)),
				WavelengthBand(700, contain(700)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeRecipDiff(v[0], v[1])
			}),
		},
		{
			Identifier: "vog1",
			Name:       "Vogelmann Red Edge Index 1",
			Bands: []BandRequirement{
				WavelengthBand(720, window(720)),
				WavelengthBand(740, window(740)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1], v[0])
			}),
		},
		{
			Identifier: "vog2",
			Name:       "Vogelmann Red Edge Index 2",
			Bands: []BandRequirement{
				WavelengthBand(715, window(715)),
				WavelengthBand(726, window(726)),
				WavelengthBand(734, window(734)),
				WavelengthBand(747, window(747)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[2]-v[3], v[0]+v[1])
			}),
		},
		{
			Identifier: "vog3",
			Name:       "Vogelmann Red Edge Index 3",
			Bands: []BandRequirement{
				WavelengthBand(715, window(715)),
				WavelengthBand(720, window(720)),
				WavelengthBand(734, window(734)),
				WavelengthBand(747, window(747)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[2]-v[3], v[0]+v[1])
			}),
		},
		{
			// band 0 = VOG1, band 1 = VOG2, band 2 = VOG3; the
			// false colour assignment references them positionally.
			Identifier: "vog",
			Name:       "Vogelmann Red Edge Index",
			Bands: []BandRequirement{
				WavelengthBand(715, window(715)),
				WavelengthBand(720, window(720)),
				WavelengthBand(726, window(726)),
				WavelengthBand(734, window(734)),
				WavelengthBand(740, window(740)),
				WavelengthBand(747, window(747)),
			},
			Result: ResultSpec{
				Format: raster.Floating,
				Bands:  3,
				Depth:  64,
				Presentation: raster.Presentation{
					Mode:           raster.PresentFalseColour,
					BandAssignment: []string{"vog1", "vog2", "vog3"},
				},
			},
			Eval: func(v, c []float64) []float64 {
				b715, b720, b726, b734, b740, b747 := v[0], v[1], v[2], v[3], v[4], v[5]
				return []float64{
					safeDiv(b740, b720),
					safeDiv(b734-b747, b715+b726),
					safeDiv(b734-b747, b715+b720),
				}
			},
		},
		{
			Identifier: "rendvi",
			Name:       "Red Edge Normalized Difference Vegetation Index",
			Bands: []BandRequirement{
				WavelengthBand(705, window(705)),
				WavelengthBand(750, window(750)),
			},
			Result: scalarResult("rdylgn"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1]-v[0], v[1]+v[0])
			}),
		},
		{
			Identifier: "mresr",
			Name:       "Modified Red Edge Simple Ratio Index",
			Bands: []BandRequirement{
				WavelengthBand(445, contain(445)),
				WavelengthBand(705, window(705)),
				WavelengthBand(750, window(750)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[2]-v[0], v[1]-v[0])
			}),
		},
		{
			Identifier: "psri",
			Name:       "Plant Senescence Reflectance Index",
			Bands: []BandRequirement{
				WavelengthBand(500, contain(500)),
				WavelengthBand(680, contain(680)),
				WavelengthBand(750, window(750)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[1]-v[0], v[2])
			}),
		},
		{
			Identifier: "sipi",
			Name:       "Structure Insensitive Pigment Index",
			Bands: []BandRequirement{
				WavelengthBand(445, contain(445)),
				WavelengthBand(680, contain(680)),
				WavelengthBand(800, contain(800)),
			},
			Result: scalarResult("grayscale"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[2]-v[0], v[2]-v[1])
			}),
		},
		{
			Identifier: "wbi",
			Name:       "Water Band Index",
			Bands: []BandRequirement{
				WavelengthBand(900, contain(900)),
				WavelengthBand(970, contain(970)),
			},
			Result: scalarResult("blues"),
			Eval: scalar(func(v, c []float64) float64 {
				return safeDiv(v[0], v[1])
			}),
		},
	}
}
