package yamlshape

import (
	"regexp"
	"strings"
)

// FlagPolicy is the flag-format correctness rule.
type FlagPolicy int

const (
	FlagPolicyNone FlagPolicy = iota
	FlagPolicyCompetitionPrefix
	FlagPolicyRegex
)

// PointPolicy is the points correctness rule.
type PointPolicy int

const (
	PointPolicyNone PointPolicy = iota
	PointPolicyMultipleOf
	PointPolicyCustom
)

// Correctness is a validator configuration layered on top of a
// successfully-parsed Shape. It is distinct from structural verification:
// a Shape can parse cleanly yet still fail a competition's own rules (wrong
// flag prefix, unlisted category, non-conforming point value).
type Correctness struct {
	Flag           FlagPolicy
	CompPrefix     string         // used when Flag == FlagPolicyCompetitionPrefix
	FlagRegex      *regexp.Regexp // used when Flag == FlagPolicyRegex

	AllowedCategories []string
	CaseSensitive     bool

	Points    PointPolicy
	PointMult uint64                 // used when Points == PointPolicyMultipleOf
	PointFn   func(uint64) bool      // used when Points == PointPolicyCustom
}

// Failures reports which aspects of shape failed this policy. Verify always
// returns a non-nil value; Any reports whether any aspect failed.
type Failures struct {
	FlagFailed       bool
	CategoriesFailed []string // offending category names
	PointsFailed     bool
}

func (f *Failures) Any() bool {
	return f.FlagFailed || len(f.CategoriesFailed) > 0 || f.PointsFailed
}

// Verify inspects shape against the configured policy and returns the
// per-aspect failures found, never short-circuiting: flag, categories, and
// points are each checked regardless of whether an earlier aspect failed.
func (c *Correctness) Verify(shape *Shape) *Failures {
	out := &Failures{}

	switch c.Flag {
	case FlagPolicyCompetitionPrefix:
		if shape.Flag.Kind != FlagString || !strings.HasPrefix(shape.Flag.Literal, c.CompPrefix) {
			out.FlagFailed = true
		}
	case FlagPolicyRegex:
		if c.FlagRegex == nil || shape.Flag.Kind != FlagString || !c.FlagRegex.MatchString(shape.Flag.Literal) {
			out.FlagFailed = true
		}
	}

	if len(c.AllowedCategories) > 0 {
		allowed := make(map[string]struct{}, len(c.AllowedCategories))
		for _, a := range c.AllowedCategories {
			if !c.CaseSensitive {
				a = strings.ToLower(a)
			}
			allowed[a] = struct{}{}
		}
		for _, cat := range shape.Categories {
			key := cat
			if !c.CaseSensitive {
				key = strings.ToLower(key)
			}
			if _, ok := allowed[key]; !ok {
				out.CategoriesFailed = append(out.CategoriesFailed, cat)
			}
		}
	}

	switch c.Points {
	case PointPolicyMultipleOf:
		if c.PointMult == 0 || shape.Points%c.PointMult != 0 {
			out.PointsFailed = true
		}
	case PointPolicyCustom:
		if c.PointFn == nil || !c.PointFn(shape.Points) {
			out.PointsFailed = true
		}
	}

	return out
}
