package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openidtools/oidc/pkg/oidc"
)

// rewriteTransport sends every request to the test server, regardless of
// the host in the URL. WebFinger derives the host from the identifier,
// so the requests cannot be pointed at httptest directly.
type rewriteTransport struct {
	host string
	rt   http.RoundTripper
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "https"
	req.URL.Host = t.host
	return t.rt.RoundTrip(req)
}

func webFingerClient(t *testing.T, response *oidc.WebFingerResponse, wantResource string) *http.Client {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, oidc.WebFingerEndpoint, r.URL.Path)
		assert.Equal(t, wantResource, r.URL.Query().Get("resource"))
		assert.Equal(t, oidc.RelationIssuer, r.URL.Query().Get("rel"))
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(srv.Close)
	client := srv.Client()
	client.Transport = rewriteTransport{host: srv.Listener.Addr().String(), rt: client.Transport}
	return client
}

func TestResolveIssuerFromURL(t *testing.T) {
	const identifier = "https://example.com/joe"

	tests := []struct {
		name     string
		response *oidc.WebFingerResponse
		wantErr  bool
	}{
		{
			name: "success",
			response: &oidc.WebFingerResponse{
				Subject: identifier,
				Links:   []oidc.WebFingerLink{{Rel: oidc.RelationIssuer, Href: "https://op.example.com"}},
			},
		},
		{
			name: "subject mismatch",
			response: &oidc.WebFingerResponse{
				Subject: "https://example.com/someone-else",
				Links:   []oidc.WebFingerLink{{Rel: oidc.RelationIssuer, Href: "https://op.example.com"}},
			},
			wantErr: true,
		},
		{
			name: "expired response",
			response: &oidc.WebFingerResponse{
				Subject: identifier,
				Expires: oidc.FromTime(time.Now().Add(-time.Hour)),
				Links:   []oidc.WebFingerLink{{Rel: oidc.RelationIssuer, Href: "https://op.example.com"}},
			},
			wantErr: true,
		},
		{
			name: "no issuer link",
			response: &oidc.WebFingerResponse{
				Subject: identifier,
				Links:   []oidc.WebFingerLink{{Rel: "http://webfinger.net/rel/profile-page", Href: "https://example.com/joe"}},
			},
			wantErr: true,
		},
		{
			name: "issuer with query",
			response: &oidc.WebFingerResponse{
				Subject: identifier,
				Links:   []oidc.WebFingerLink{{Rel: oidc.RelationIssuer, Href: "https://op.example.com?foo=bar"}},
			},
			wantErr: true,
		},
		{
			name: "issuer not https",
			response: &oidc.WebFingerResponse{
				Subject: identifier,
				Links:   []oidc.WebFingerLink{{Rel: oidc.RelationIssuer, Href: "http://op.example.com"}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := webFingerClient(t, tt.response, identifier)
			issuer, err := ResolveIssuerFromURL(context.Background(), identifier, httpClient)
			if tt.wantErr {
				require.ErrorIs(t, err, oidc.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://op.example.com", issuer)
		})
	}
}

func TestResolveIssuerFromURL_invalidIdentifier(t *testing.T) {
	for _, identifier := range []string{"", "http://example.com/joe", "https://", "not a url at all\n"} {
		t.Run(identifier, func(t *testing.T) {
			_, err := ResolveIssuerFromURL(context.Background(), identifier, http.DefaultClient)
			require.ErrorIs(t, err, oidc.ErrValidation)
		})
	}
}

func TestResolveIssuerFromEmail(t *testing.T) {
	httpClient := webFingerClient(t, &oidc.WebFingerResponse{
		Subject: "acct:joe@example.com",
		Links:   []oidc.WebFingerLink{{Rel: oidc.RelationIssuer, Href: "https://op.example.com"}},
	}, "acct:joe@example.com")

	issuer, err := ResolveIssuerFromEmail(context.Background(), "joe@example.com", httpClient)
	require.NoError(t, err)
	assert.Equal(t, "https://op.example.com", issuer)
}

func TestResolveIssuerFromEmail_invalidIdentifier(t *testing.T) {
	for _, email := range []string{"", "joe", "Joe Smith <joe@example.com>", "joe@"} {
		t.Run(email, func(t *testing.T) {
			_, err := ResolveIssuerFromEmail(context.Background(), email, http.DefaultClient)
			require.ErrorIs(t, err, oidc.ErrValidation)
		})
	}
}
