package utils

import (
	"math"
	"testing"
)

func TestParseBandExpressions(t *testing.T) {
	bandExpr, err := ParseBandExpressions([]string{"(nir - red) / (nir + red)", "nir", "red + nir"})
	if err != nil {
		t.Fatalf("band expression parsing failed: %v", err)
	}
	if len(bandExpr.Expressions) != 3 {
		t.Fatalf("expecting 3 expressions, actual %v", len(bandExpr.Expressions))
	}

	if len(bandExpr.VarList) != 2 {
		t.Errorf("var list failed, expecting [nir red], actual %v", bandExpr.VarList)
	}

	if bandExpr.ExprNames[1] != "nir" {
		t.Errorf("bare variable expression name failed, expecting nir, actual %v", bandExpr.ExprNames[1])
	}
	if bandExpr.ExprNames[0] != "(nir - red) / (nir + red)" {
		t.Errorf("expression name failed, actual %v", bandExpr.ExprNames[0])
	}

	if len(bandExpr.ExprVarRef[0]) != 2 || bandExpr.ExprVarRef[0][0] != "nir" || bandExpr.ExprVarRef[0][1] != "red" {
		t.Errorf("expression var refs failed, actual %v", bandExpr.ExprVarRef[0])
	}
}

func TestParseBandExpressionsErrors(t *testing.T) {
	for _, expr := range []string{"", "nir +", "a b"} {
		if _, err := ParseBandExpressions([]string{expr}); err == nil {
			t.Errorf("malformed expression accepted: %q", expr)
		}
	}
}

func TestEvaluateBandExpression(t *testing.T) {
	bandExpr, err := ParseBandExpressions([]string{"(nir - red) / (nir + red)"})
	if err != nil {
		t.Fatalf("band expression parsing failed: %v", err)
	}

	out, err := EvaluateBandExpression(bandExpr.Expressions[0], map[string]float64{"nir": 0.8, "red": 0.2})
	if err != nil {
		t.Fatalf("band expression evaluation failed: %v", err)
	}
	if math.Abs(out-0.6) > 1e-9 {
		t.Errorf("evaluation failed, expecting 0.6, actual %v", out)
	}
}
