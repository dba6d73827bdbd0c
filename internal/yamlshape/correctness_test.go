package yamlshape

import "testing"

func TestCorrectness_FlagCompetitionPrefix(t *testing.T) {
	shape := &Shape{Flag: Flag{Kind: FlagString, Literal: "bcactf{ok}"}}
	c := &Correctness{Flag: FlagPolicyCompetitionPrefix, CompPrefix: "bcactf{"}

	if f := c.Verify(shape); f.FlagFailed {
		t.Error("expected flag to pass")
	}

	shape.Flag.Literal = "wrong{ok}"
	if f := c.Verify(shape); !f.FlagFailed {
		t.Error("expected flag to fail")
	}
}

func TestCorrectness_CategoriesCaseSensitivity(t *testing.T) {
	shape := &Shape{Categories: []string{"Web", "crypto"}}
	c := &Correctness{AllowedCategories: []string{"web", "crypto"}, CaseSensitive: true}

	f := c.Verify(shape)
	if len(f.CategoriesFailed) != 1 || f.CategoriesFailed[0] != "Web" {
		t.Errorf("CategoriesFailed = %v, want [\"Web\"] under case-sensitive policy", f.CategoriesFailed)
	}

	c.CaseSensitive = false
	f = c.Verify(shape)
	if len(f.CategoriesFailed) != 0 {
		t.Errorf("CategoriesFailed = %v, want none under case-insensitive policy", f.CategoriesFailed)
	}
}

func TestCorrectness_PointsMultipleOf(t *testing.T) {
	shape := &Shape{Points: 55}
	c := &Correctness{Points: PointPolicyMultipleOf, PointMult: 25}
	if f := c.Verify(shape); !f.PointsFailed {
		t.Error("expected points to fail multiple-of-25 check")
	}

	shape.Points = 75
	if f := c.Verify(shape); f.PointsFailed {
		t.Error("expected points to pass multiple-of-25 check")
	}
}

func TestCorrectness_NeverShortCircuits(t *testing.T) {
	shape := &Shape{
		Flag:       Flag{Kind: FlagString, Literal: "wrong"},
		Categories: []string{"forbidden"},
		Points:     7,
	}
	c := &Correctness{
		Flag:              FlagPolicyCompetitionPrefix,
		CompPrefix:        "bcactf{",
		AllowedCategories: []string{"web"},
		Points:            PointPolicyMultipleOf,
		PointMult:         25,
	}

	f := c.Verify(shape)
	if !f.FlagFailed || !f.PointsFailed || len(f.CategoriesFailed) != 1 {
		t.Errorf("expected all three aspects to fail independently, got %+v", f)
	}
}
