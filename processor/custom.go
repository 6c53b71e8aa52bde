package processor

import (
	"fmt"
	"math"

	"github.com/nci/spectral/params"
	"github.com/nci/spectral/raster"
	"github.com/nci/spectral/utils"
)

var domainParams = map[raster.Domain]string{
	raster.Blue:                    "index_of_blue_band",
	raster.Green:                   "index_of_green_band",
	raster.Red:                     "index_of_red_band",
	raster.RedEdge:                 "index_of_red_edge_band",
	raster.NearInfrared:            "index_of_near_infrared_band",
	raster.ShortWavelengthInfrared: "index_of_short_wavelength_infrared_band",
}

// FormulaFromConfig compiles a user defined index declaration into
// a formula the shared engine can run. Every variable referenced by
// the expressions must have a band binding; each expression becomes
// one output band in declaration order.
func FormulaFromConfig(ci *utils.CustomIndex) (*Formula, error) {
	if len(ci.Identifier) == 0 {
		return nil, fmt.Errorf("custom index without an identifier")
	}
	if IndexByIdentifier(ci.Identifier) != nil {
		return nil, fmt.Errorf("custom index %s shadows a built in index", ci.Identifier)
	}

	bandExpr, err := utils.ParseBandExpressions(ci.Expressions)
	if err != nil {
		return nil, fmt.Errorf("custom index %s: %v", ci.Identifier, err)
	}
	if len(bandExpr.Expressions) == 0 {
		return nil, fmt.Errorf("custom index %s has no expressions", ci.Identifier)
	}

	specByVar := map[string]utils.CustomBand{}
	for _, cb := range ci.Bands {
		specByVar[cb.Variable] = cb
	}

	var reqs []BandRequirement
	for _, variable := range bandExpr.VarList {
		cb, ok := specByVar[variable]
		if !ok {
			return nil, fmt.Errorf("custom index %s: no band binding for variable %s", ci.Identifier, variable)
		}
		req, err := requirementFromConfig(variable, cb)
		if err != nil {
			return nil, fmt.Errorf("custom index %s: %v", ci.Identifier, err)
		}
		reqs = append(reqs, req)
	}

	name := ci.Name
	if len(name) == 0 {
		name = ci.Identifier
	}
	palette := ci.Palette
	if len(palette) == 0 {
		palette = "grayscale"
	}

	result := ResultSpec{
		Format: raster.Floating,
		Bands:  len(bandExpr.Expressions),
		Depth:  64,
		Presentation: raster.Presentation{
			Mode:        raster.PresentGrayscale,
			PaletteName: palette,
		},
	}
	if result.Bands == 3 {
		result.Presentation = raster.Presentation{
			Mode:           raster.PresentFalseColour,
			BandAssignment: bandExpr.ExprNames,
		}
	}

	roles := make([]string, len(reqs))
	for i, req := range reqs {
		roles[i] = req.Role
	}

	return &Formula{
		Identifier: ci.Identifier,
		Name:       name,
		Bands:      reqs,
		Result:     result,
		Eval: func(v, c []float64) []float64 {
			values := make(map[string]float64, len(roles))
			for i, role := range roles {
				values[role] = v[i]
			}
			out := make([]float64, len(bandExpr.Expressions))
			for i, expr := range bandExpr.Expressions {
				val, err := utils.EvaluateBandExpression(expr, values)
				// degenerate arithmetic follows the zero policy
				if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
					val = 0
				}
				out[i] = val
			}
			return out
		},
	}, nil
}

func requirementFromConfig(variable string, cb utils.CustomBand) (BandRequirement, error) {
	def := -1
	if cb.Default != nil {
		if *cb.Default < 0 {
			return BandRequirement{}, fmt.Errorf("variable %s: negative default band %d", variable, *cb.Default)
		}
		def = *cb.Default
	}

	if cb.Wavelength > 0 {
		req := WavelengthBand(cb.Wavelength, raster.RangeContaining(float64(cb.Wavelength)))
		req.Role = variable
		req.Default = def
		return req, nil
	}

	if len(cb.Domain) > 0 {
		dom := raster.ParseDomain(cb.Domain)
		if dom == raster.Undefined {
			return BandRequirement{}, fmt.Errorf("variable %s: unknown domain %q", variable, cb.Domain)
		}
		var p *params.Parameter
		if id, ok := domainParams[dom]; ok {
			p = params.Get(id)
		}
		return BandRequirement{Role: variable, Parameter: p, Domain: dom, Default: def}, nil
	}

	if def < 0 {
		return BandRequirement{}, fmt.Errorf("variable %s has neither domain, wavelength nor default band", variable)
	}
	return BandRequirement{Role: variable, Default: def}, nil
}
