package auth

import (
	"strings"
	"testing"
)

func token(fill byte) string {
	return strings.Repeat(string(fill), TokenSize)
}

func TestValidateToken_Match(t *testing.T) {
	tok := token('a')
	if !ValidateToken(tok, tok) {
		t.Error("expected matching tokens to validate")
	}
}

func TestValidateToken_Mismatch(t *testing.T) {
	if ValidateToken(token('a'), token('b')) {
		t.Error("expected differing tokens to fail")
	}
}

func TestValidateToken_WrongLengthShortCircuits(t *testing.T) {
	cases := []struct {
		name               string
		configured, candidate string
	}{
		{"short candidate", token('a'), "short"},
		{"short configured", "short", token('a')},
		{"both empty", "", ""},
		{"long candidate", token('a'), token('a') + "x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if ValidateToken(c.configured, c.candidate) {
				t.Errorf("expected length mismatch to fail validation")
			}
		})
	}
}
