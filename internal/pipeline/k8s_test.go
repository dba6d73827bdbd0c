package pipeline

import "testing"

func TestSafeName(t *testing.T) {
	cases := []struct {
		parts []string
		want  string
	}{
		{[]string{"Pwn 101", "web"}, "pwn-101-web"},
		{[]string{"9front"}, "c-9front"},
		{[]string{"___"}, "chall"},
	}
	for _, c := range cases {
		if got := safeName(c.parts...); got != c.want {
			t.Errorf("safeName(%v) = %q, want %q", c.parts, got, c.want)
		}
	}
}
