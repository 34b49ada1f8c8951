package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"x":                       "***",
		"abc":                     "***",
		"usuario@hospital.org":    "u…@h….org",
		"Admin@Clinic.Example.IR": "a…@c….example.ir",
		"a@b.co":                  "a@b.co",
	}
	for in, want := range cases {
		require.Equal(t, want, MaskEmail(in), "input %q", in)
	}
}
