package pkg

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUserIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		expected   string
		expectErr  bool
	}{
		{name: "remote addr with port", remoteAddr: "83.12.53.65:2145", expected: "83.12.53.65"},
		{name: "real ip header", remoteAddr: "172.20.0.1:60102", realIP: "111.12.56.65", expected: "111.12.56.65"},
		{name: "forwarded chain", remoteAddr: "172.20.0.1:60102", forwarded: "111.12.56.65, 10.0.0.2", expected: "111.12.56.65"},
		{name: "ipv6", remoteAddr: "[2001:db8::1]:443", expected: "2001:db8::1"},
		{name: "garbage", remoteAddr: "not-an-ip", expectErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-Ip", tc.realIP)
			}
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			ip, err := ReadUserIP(req)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ip)
		})
	}
}
