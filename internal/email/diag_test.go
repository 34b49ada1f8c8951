package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiagnoseSMTP(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		code      string
		temporary bool
	}{
		{"nil", nil, "unknown", false},
		{"timeout", errors.New("read tcp 10.0.0.1:587: i/o timeout"), "timeout", true},
		{"refused", errors.New("dial tcp 10.0.0.1:587: connection refused"), "dial", true},
		{"dns", errors.New("lookup smtp.example: no such host"), "dial", true},
		{"cert", errors.New("x509: certificate signed by unknown authority"), "tls", false},
		{"auth", errors.New("535 5.7.8 Username and Password not accepted"), "auth", false},
		{"throttled", errors.New("421 4.7.0 Try again later"), "rate_limited", true},
		{"bad rcpt", errors.New("550 5.1.1 User unknown"), "invalid_recipient", false},
		{"policy", errors.New("550 5.7.1 Message rejected due to DMARC policy"), "rejected", false},
		{"other", errors.New("short write"), "unknown", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DiagnoseSMTP(tc.err)
			require.Equal(t, tc.code, d.Code)
			require.Equal(t, tc.temporary, d.Temporary)
		})
	}
}
