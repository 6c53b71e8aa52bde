package raster

// Domain names the spectral region a band was acquired in.
// The zero value Undefined marks bands without interpretation.
type Domain int

const (
	Undefined Domain = iota
	Ultraviolet
	Violet
	Blue
	Green
	Yellow
	Orange
	Red
	RedEdge
	NearInfrared
	ShortWavelengthInfrared
	MidWavelengthInfrared
	LongWavelengthInfrared
	Microwave
)

var domainNames = map[string]Domain{
	"undefined":               Undefined,
	"ultraviolet":             Ultraviolet,
	"violet":                  Violet,
	"blue":                    Blue,
	"green":                   Green,
	"yellow":                  Yellow,
	"orange":                  Orange,
	"red":                     Red,
	"rededge":                 RedEdge,
	"nearinfrared":            NearInfrared,
	"shortwavelengthinfrared": ShortWavelengthInfrared,
	"midwavelengthinfrared":   MidWavelengthInfrared,
	"longwavelengthinfrared":  LongWavelengthInfrared,
	"microwave":               Microwave,
}

// ParseDomain maps a lower case domain name to its Domain value.
// Unknown names map to Undefined.
func ParseDomain(name string) Domain {
	return domainNames[name]
}

func (d Domain) String() string {
	for name, dom := range domainNames {
		if dom == d {
			return name
		}
	}
	return "undefined"
}

// WavelengthRange is the nanometer interval one band covers.
type WavelengthRange struct {
	MinNm float64
	MaxNm float64
}

// Imaging holds the acquisition metadata of a raster. Domains and
// Ranges are ordered positionally: entry i describes band i. Either
// sequence may be empty when the acquisition did not record it.
type Imaging struct {
	Domains []Domain
	Ranges  []WavelengthRange
}

// DomainIndex returns the index of the first band acquired in
// domain d, or -1 when no band matches.
func (im *Imaging) DomainIndex(d Domain) int {
	if im == nil {
		return -1
	}
	for i, dom := range im.Domains {
		if dom == d {
			return i
		}
	}
	return -1
}

// RangeIndex returns the index of the first band whose wavelength
// range satisfies the match predicate, or -1. Formulas supply their
// own predicate since boundary inclusivity differs between indices.
func (im *Imaging) RangeIndex(match func(WavelengthRange) bool) int {
	if im == nil {
		return -1
	}
	for i, rng := range im.Ranges {
		if match(rng) {
			return i
		}
	}
	return -1
}

// RangeContaining matches bands whose interval includes nm with
// inclusive bounds on both sides.
func RangeContaining(nm float64) func(WavelengthRange) bool {
	return func(r WavelengthRange) bool {
		return r.MinNm <= nm && nm <= r.MaxNm
	}
}

// RangeWithin matches bands entirely inside [lo, hi]. The lower
// bound is inclusive and the upper bound exclusive, matching the
// behaviour of the narrow-band pigment indices.
func RangeWithin(lo, hi float64) func(WavelengthRange) bool {
	return func(r WavelengthRange) bool {
		return r.MinNm >= lo && r.MaxNm < hi
	}
}
