package utils

import (
	"fmt"
	"sort"

	goeval "github.com/edisonguo/govaluate"
)

// BandExpressions holds a set of parsed algebraic expressions over
// band variables. VarList is the deduplicated union of variables
// across all expressions; ExprVarRef lists the variables referenced
// by each expression positionally.
type BandExpressions struct {
	ExprText    []string
	Expressions []*goeval.EvaluableExpression
	ExprNames   []string
	ExprVarRef  [][]string
	VarList     []string
}

// ParseBandExpressions parses each input string with govaluate and
// gathers the variable cross references. Only arithmetic and
// comparison operators are meaningful over band values; function
// calls are rejected by the parser configuration.
func ParseBandExpressions(bands []string) (*BandExpressions, error) {
	bandExpr := &BandExpressions{}
	varFound := make(map[string]bool)
	for _, bandRaw := range bands {
		if len(bandRaw) == 0 {
			return nil, fmt.Errorf("empty band expression")
		}
		expr, err := goeval.NewEvaluableExpression(bandRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing error in band expression %q: %v", bandRaw, err)
		}
		bandExpr.Expressions = append(bandExpr.Expressions, expr)
		bandExpr.ExprText = append(bandExpr.ExprText, bandRaw)

		exprVars := expr.Vars()
		varRef := make([]string, 0, len(exprVars))
		refFound := make(map[string]bool)
		for _, v := range exprVars {
			if !refFound[v] {
				refFound[v] = true
				varRef = append(varRef, v)
			}
			if !varFound[v] {
				varFound[v] = true
				bandExpr.VarList = append(bandExpr.VarList, v)
			}
		}
		sort.Strings(varRef)
		bandExpr.ExprVarRef = append(bandExpr.ExprVarRef, varRef)

		if len(varRef) == 1 && varRef[0] == bandRaw {
			bandExpr.ExprNames = append(bandExpr.ExprNames, varRef[0])
		} else {
			bandExpr.ExprNames = append(bandExpr.ExprNames, bandRaw)
		}
	}
	return bandExpr, nil
}

// EvaluateBandExpression evaluates one parsed expression against
// the supplied band values and coerces the result to float64.
func EvaluateBandExpression(expr *goeval.EvaluableExpression, values map[string]float64) (float64, error) {
	parameters := make(map[string]interface{}, len(values))
	for name, v := range values {
		parameters[name] = v
	}
	val, err := expr.Evaluate(parameters)
	if err != nil {
		return 0, err
	}
	out, ok := val.(float64)
	if !ok {
		return 0, fmt.Errorf("failed to cast eval results '%v' to float64", val)
	}
	return out, nil
}
