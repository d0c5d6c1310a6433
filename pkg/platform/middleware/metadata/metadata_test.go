package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"turia/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"single forwarded", map[string]string{"X-Forwarded-For": " 203.0.113.8 "}, "10.0.0.2:1234", "203.0.113.8"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote ipv4", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote ipv6", nil, "[::1]:5555", "::1"},
		{"garbage forwarded falls through", map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "198.51.100.9"}, "10.0.0.2:1234", "198.51.100.9"},
		{"garbage headers use the peer", map[string]string{"X-Real-IP": "nope"}, "10.0.0.2:1234", "10.0.0.2"},
		{"empty remote", nil, "", UnknownIP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA, gotReqID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
		gotReqID = requestcontext.RequestID(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:4000"
	r.Header.Set("User-Agent", "curl/8.0")
	r.Header.Set(chimw.RequestIDHeader, "req-abc")

	chimw.RequestID(ClientMetadata(next)).ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", gotIP)
	assert.Equal(t, "curl/8.0", gotUA)
	assert.Equal(t, "req-abc", gotReqID)
}
