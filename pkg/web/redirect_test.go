package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeRedirect(t *testing.T) {
	tests := []struct {
		name   string
		target string
		safe   bool
	}{
		{name: "relative path", target: "/bok/reports", safe: true},
		{name: "relative with query", target: "/rfr/dashboard?tab=open", safe: true},
		{name: "empty", target: "", safe: false},
		{name: "absolute foreign host", target: "http://evil.example/phish", safe: false},
		{name: "absolute https", target: "https://evil.example/", safe: false},
		{name: "scheme relative", target: "//evil.example/phish", safe: false},
		{name: "backslash host trick", target: "/\\evil.example", safe: false},
		{name: "javascript scheme", target: "javascript:alert(1)", safe: false},
		{name: "opaque mailto", target: "mailto:a@b.example", safe: false},
		{name: "unparseable", target: "http://[::1", safe: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.safe, isSafeRedirect(tt.target))
		})
	}
}

func TestUnwrapNext(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "plain target untouched",
			in:   "/bok/reports",
			out:  "/bok/reports",
		},
		{
			name: "nested next extracted",
			in:   "/accounts/login?next=/rfr/dashboard",
			out:  "/rfr/dashboard",
		},
		{
			name: "encoded nested next extracted",
			in:   "%2Faccounts%2Flogin%3Fnext%3D%2Frfr%2Fdashboard",
			out:  "/rfr/dashboard",
		},
		{
			name: "no nested parameter",
			in:   "/accounts/login?other=1",
			out:  "/accounts/login?other=1",
		},
		{
			name: "bad escape left alone",
			in:   "/x%zz?next=/y",
			out:  "/x%zz?next=/y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, unwrapNext(tt.in))
		})
	}
}
