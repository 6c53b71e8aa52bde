package params

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Wavelengths of the narrow band parameters used by the built in
// index formulas, in nanometers.
var bandWavelengths = []int{
	445, 500, 510, 531, 550, 570, 680, 700, 705, 715, 720,
	726, 734, 740, 747, 750, 760, 800, 860, 900, 970,
}

type catalog struct {
	byIdentifier map[string]*Parameter
	ordered      []*Parameter
}

var (
	registryOnce sync.Once
	registry     *catalog
)

func buildRegistry() *catalog {
	c := &catalog{byIdentifier: map[string]*Parameter{}}

	add := func(p *Parameter) *Parameter {
		if existing, ok := c.byIdentifier[p.Identifier]; ok {
			return existing
		}
		c.byIdentifier[p.Identifier] = p
		c.ordered = append(c.ordered, p)
		return p
	}

	bandIndex := func(identifier, name string) {
		add(newParameter(identifier, name, false, nil, validBandIndex))
	}

	bandIndex("index_of_blue_band", "Index of blue band")
	bandIndex("index_of_green_band", "Index of green band")
	bandIndex("index_of_red_band", "Index of red band")
	bandIndex("index_of_red_edge_band", "Index of red edge band")
	bandIndex("index_of_near_infrared_band", "Index of near infrared band")
	bandIndex("index_of_short_wavelength_infrared_band", "Index of short wavelength infrared band")
	bandIndex("index_of_second_short_wavelength_infrared_band", "Index of second short wavelength infrared band")

	for _, nm := range bandWavelengths {
		bandIndex(fmt.Sprintf("index_of_%dnm_band", nm), fmt.Sprintf("Index of %dnm band", nm))
	}

	add(newParameter("soil_adjustment_factor", "Soil adjustment factor", false,
		0.5, validUnitInterval))
	add(newParameter("gain_factor", "Gain factor", false, 2.5, validPositive))
	add(newParameter("canopy_background_adjustment", "Canopy background adjustment", false,
		1.0, validNonNegative))
	add(newParameter("aerosol_resistance_coefficient_1", "Aerosol resistance coefficient 1", false,
		6.0, validNonNegative))
	add(newParameter("aerosol_resistance_coefficient_2", "Aerosol resistance coefficient 2", false,
		7.5, validNonNegative))

	return c
}

func getRegistry() *catalog {
	registryOnce.Do(func() {
		registry = buildRegistry()
	})
	return registry
}

// All returns the deduplicated catalog of registered parameters.
// The catalog is built once on first access and cached for the
// lifetime of the process.
func All() []*Parameter {
	reg := getRegistry()
	out := make([]*Parameter, len(reg.ordered))
	copy(out, reg.ordered)
	return out
}

// Get returns the catalog parameter with the given identifier, or
// nil when none is registered.
func Get(identifier string) *Parameter {
	return getRegistry().byIdentifier[identifier]
}

// BandAt returns the band index parameter for a narrow band centred
// at the given wavelength, or nil when the catalog carries none.
func BandAt(nm int) *Parameter {
	return Get(fmt.Sprintf("index_of_%dnm_band", nm))
}

// FromIdentifier searches the catalog by identifier. The pattern is
// treated as a regular expression; a pattern that does not compile
// degrades to a literal substring match. No match yields an empty
// result, never an error.
func FromIdentifier(pattern string) []*Parameter {
	return search(pattern, func(p *Parameter) string { return p.Identifier })
}

// FromName searches the catalog by human readable name with the
// same matching rules as FromIdentifier.
func FromName(pattern string) []*Parameter {
	return search(pattern, func(p *Parameter) string { return p.Name })
}

func search(pattern string, key func(*Parameter) string) []*Parameter {
	reg := getRegistry()
	out := []*Parameter{}

	re, err := regexp.Compile(pattern)
	for _, p := range reg.ordered {
		if err == nil {
			if re.MatchString(key(p)) {
				out = append(out, p)
			}
		} else if strings.Contains(key(p), pattern) {
			out = append(out, p)
		}
	}
	return out
}

func validBandIndex(v interface{}) bool {
	idx, err := toInt(v)
	return err == nil && idx >= 0
}

func validUnitInterval(v interface{}) bool {
	f, err := toFloat(v)
	return err == nil && f >= 0 && f <= 1
}

func validPositive(v interface{}) bool {
	f, err := toFloat(v)
	return err == nil && f > 0
}

func validNonNegative(v interface{}) bool {
	f, err := toFloat(v)
	return err == nil && f >= 0
}
