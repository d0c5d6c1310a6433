package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"turia/internal/verification"
	"turia/internal/verification/models"
	"turia/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	calls   atomic.Int32
	handler http.HandlerFunc
	server  *httptest.Server
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.calls.Store(0)
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.handler(w, r)
	}))
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) newClient(opts ...Option) *Client {
	return New(Config{
		BaseURL:      s.server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Email:        "ops@turia.example",
		Timeout:      time.Second,
	}, opts...)
}

func (s *ClientSuite) respond(status int, body string) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (s *ClientSuite) TestMissingCredentialsNeverCallsNetwork() {
	for _, cfg := range []Config{
		{BaseURL: s.server.URL},
		{BaseURL: s.server.URL, ClientID: "id"},
		{BaseURL: s.server.URL, ClientSecret: "secret"},
		{BaseURL: s.server.URL, ClientID: "  ", ClientSecret: "secret"},
	} {
		c := New(cfg)
		_, err := c.Lookup(context.Background(), "29AAICT1443M1ZX")
		s.Require().Error(err)
		s.Equal(verification.CategoryCredentialsMissing, verification.CategoryOf(err))
		s.False(c.Configured())
	}
	s.Equal(int32(0), s.calls.Load())
}

func (s *ClientSuite) TestRequestShape() {
	var got *http.Request
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"data":{"lgnm":"ACME"}}`))
	}

	_, err := s.newClient().Lookup(context.Background(), "27ABCDE1234F1Z5")
	s.Require().NoError(err)

	s.Require().NotNil(got)
	s.Equal(http.MethodGet, got.Method)
	s.Equal("/public/search", got.URL.Path)
	s.Equal("27ABCDE1234F1Z5", got.URL.Query().Get("gstin"))
	s.Equal("ops@turia.example", got.URL.Query().Get("email"))
	s.Equal("application/json", got.Header.Get("Accept"))
	s.Equal("client-id", got.Header.Get("client_id"))
	s.Equal("client-secret", got.Header.Get("client_secret"))
}

func (s *ClientSuite) TestSuccess() {
	s.respond(http.StatusOK, string(readFixture(s.T(), "search_success.json")))

	result, err := s.newClient().Lookup(context.Background(), "33AABCT1332L1ZZ")
	s.Require().NoError(err)
	s.Equal("TITAN COMPANY LIMITED", result.LegalName)
	s.Equal(models.SourceUpstream, result.Source)
	s.True(result.Verified)
	s.Equal(int32(1), s.calls.Load())
}

func (s *ClientSuite) TestResponseClassification() {
	tests := []struct {
		name    string
		status  int
		body    string
		want    verification.Category
		message string
	}{
		{"portal down", http.StatusOK, `{"status_cd":"0","error":{"message":"UnknownHostException: devapi.gst.gov.in"}}`, verification.CategoryUpstreamUnavailable, verification.MsgPortalUnavailable},
		{"rejected", http.StatusOK, `{"status_cd":"0","status_desc":"Invalid GSTIN"}`, verification.CategoryUpstreamRejected, "Invalid GSTIN"},
		{"not found", http.StatusOK, `{"status_cd":"1"}`, verification.CategoryNotFound, verification.MsgNotFound},
		{"html on success status", http.StatusOK, `<html>ok</html>`, verification.CategoryNotFound, verification.MsgNotFound},
		{"http error with body", http.StatusUnauthorized, `{"status_desc":"Invalid client"}`, verification.CategoryUpstreamRejected, "Invalid client"},
		{"http error without body", http.StatusBadGateway, ``, verification.CategoryUnknownFailure, verification.MsgUnknownFailure},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.respond(tt.status, tt.body)
			_, err := s.newClient().Lookup(context.Background(), "29AAICT1443M1ZX")
			s.Require().Error(err)
			s.Equal(tt.want, verification.CategoryOf(err))
			s.Equal(tt.message, verification.Classify(err).Message)
		})
	}
}

func (s *ClientSuite) TestTimeoutIsUnavailable() {
	release := make(chan struct{})
	defer close(release)
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}

	c := New(Config{
		BaseURL:      s.server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      50 * time.Millisecond,
	})

	start := time.Now()
	_, err := c.Lookup(context.Background(), "29AAICT1443M1ZX")
	s.Require().Error(err)
	s.Equal(verification.CategoryUpstreamUnavailable, verification.CategoryOf(err))
	s.Less(time.Since(start), 2*time.Second)
	s.Equal(int32(1), s.calls.Load(), "no retry")
}

func (s *ClientSuite) TestConnectionRefusedIsUnavailable() {
	url := s.server.URL
	s.server.Close()

	c := New(Config{BaseURL: url, ClientID: "id", ClientSecret: "secret", Timeout: time.Second})
	_, err := c.Lookup(context.Background(), "29AAICT1443M1ZX")
	s.Require().Error(err)
	s.Equal(verification.CategoryUpstreamUnavailable, verification.CategoryOf(err))
	s.True(verification.Classify(err).Retryable())

	// Recreate so TearDownTest has something to close.
	s.server = httptest.NewServer(http.NotFoundHandler())
}

func (s *ClientSuite) TestBreakerOpensOnUnavailableOnly() {
	breaker := circuit.New("mastergst", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	c := s.newClient(WithBreaker(breaker))

	// Rejections are answers; they keep the circuit closed.
	s.respond(http.StatusOK, `{"status_cd":"0","status_desc":"Invalid GSTIN"}`)
	for range 3 {
		_, _ = c.Lookup(context.Background(), "29AAICT1443M1ZX")
	}
	s.Equal(circuit.StateClosed, c.BreakerState())

	s.respond(http.StatusOK, `{"status_cd":"0","error":{"message":"UnknownHostException"}}`)
	_, _ = c.Lookup(context.Background(), "29AAICT1443M1ZX")
	_, _ = c.Lookup(context.Background(), "29AAICT1443M1ZX")
	s.Equal(circuit.StateOpen, c.BreakerState())

	callsBefore := s.calls.Load()
	_, err := c.Lookup(context.Background(), "29AAICT1443M1ZX")
	s.Require().Error(err)
	s.Equal(verification.CategoryUpstreamUnavailable, verification.CategoryOf(err))
	s.ErrorIs(err, ErrCircuitOpen)
	s.Equal(callsBefore, s.calls.Load(), "open circuit short-circuits the network call")
}

func (s *ClientSuite) TestHealth() {
	s.Run("reachable", func() {
		s.respond(http.StatusNotFound, ``)
		s.NoError(s.newClient().Health(context.Background()))
	})

	s.Run("credentials missing", func() {
		err := New(Config{BaseURL: s.server.URL}).Health(context.Background())
		s.Equal(verification.CategoryCredentialsMissing, verification.CategoryOf(err))
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BaseURL: "https://example.test/"}.withDefaults()
	assert.Equal(t, "https://example.test", cfg.BaseURL)
	assert.Equal(t, DefaultEmail, cfg.Email)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	empty := Config{}.withDefaults()
	assert.Equal(t, DefaultBaseURL, empty.BaseURL)
}

func TestNew_AppliesTimeoutToHTTPClient(t *testing.T) {
	c := New(Config{Timeout: 3 * time.Second})
	require.NotNil(t, c.http)
	assert.Equal(t, 3*time.Second, c.http.Timeout)
	assert.Equal(t, circuit.StateClosed, c.BreakerState())
}
