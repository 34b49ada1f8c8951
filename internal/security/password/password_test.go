package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Params chicos para que los tests no paguen el costo de producción.
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(testParams, "Str0ng!Pass")
	require.NoError(t, err)
	require.Contains(t, phc, "$argon2id$v=19$")

	require.True(t, Verify("Str0ng!Pass", phc))
	require.False(t, Verify("str0ng!pass", phc))
	require.False(t, Verify("", phc))
}

func TestHashSaltsDiffer(t *testing.T) {
	a, err := Hash(testParams, "Str0ng!Pass")
	require.NoError(t, err)
	b, err := Hash(testParams, "Str0ng!Pass")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestHashEmptyPassword(t *testing.T) {
	_, err := Hash(testParams, "")
	require.Error(t, err)
}

func TestVerifyMalformedPHC(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=18$m=8192,t=1,p=1$AAAA$BBBB",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$BBBB",
	} {
		require.False(t, Verify("whatever", phc), "phc %q", phc)
	}
}

func TestPolicyValidate(t *testing.T) {
	p := DefaultPolicy

	ok, reasons := p.Validate("Str0ng!Pass")
	require.True(t, ok)
	require.Empty(t, reasons)

	cases := []struct {
		pass   string
		reason string
	}{
		{"S1!a", "too_short"},
		{"str0ng!pass", "missing_upper"},
		{"STR0NG!PASS", "missing_lower"},
		{"Strong!Pass", "missing_digit"},
		{"Str0ngPass", "missing_symbol"},
	}
	for _, tc := range cases {
		ok, reasons := p.Validate(tc.pass)
		require.False(t, ok, "pass %q", tc.pass)
		require.Contains(t, reasons, tc.reason, "pass %q", tc.pass)
	}
}
