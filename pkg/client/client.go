package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"golang.org/x/oauth2"

	"github.com/openidtools/oidc/internal/otel"
	httphelper "github.com/openidtools/oidc/pkg/http"
	"github.com/openidtools/oidc/pkg/oidc"
)

var (
	Encoder = oidc.DefaultEncoder

	ErrIssuerMismatch = errors.New("issuer in discovery document does not match the requested issuer")
)

// Tracer is the tracer all client side spans are started on. Build with
// the no_otel tag to compile the otel libraries out.
var Tracer = otel.Tracer("github.com/openidtools/oidc/pkg/client")

// Discover fetches the openid-configuration document of the issuer and
// returns its configuration. The issuer claimed in the document must
// exactly equal the requested one. An optional wellKnownUrl overrides
// the derived discovery endpoint, for providers behind rewriting
// proxies.
func Discover(ctx context.Context, issuer string, httpClient *http.Client, wellKnownUrl ...string) (*oidc.DiscoveryConfiguration, error) {
	ctx, span := Tracer.Start(ctx, "Discover")
	defer span.End()

	wellKnown := strings.TrimSuffix(issuer, "/") + oidc.DiscoveryEndpoint
	if len(wellKnownUrl) == 1 && wellKnownUrl[0] != "" {
		wellKnown = wellKnownUrl[0]
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, err
	}
	discoveryConfig := new(oidc.DiscoveryConfiguration)
	err = httphelper.HttpRequest(httpClient, req, &discoveryConfig)
	if err != nil {
		return nil, err
	}
	if discoveryConfig.Issuer != issuer {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrIssuerMismatch, issuer, discoveryConfig.Issuer)
	}
	return discoveryConfig, nil
}

// GetKeySet downloads the provider's current JWK set. Callers that need
// rotation awareness should use the remote key set of the rp package
// instead of a one-shot snapshot.
func GetKeySet(ctx context.Context, jwksURL string, httpClient *http.Client) (*jose.JSONWebKeySet, error) {
	ctx, span := Tracer.Start(ctx, "GetKeySet")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, err
	}
	keySet := new(jose.JSONWebKeySet)
	if err = httphelper.HttpRequest(httpClient, req, keySet); err != nil {
		return nil, err
	}
	return keySet, nil
}

type TokenEndpointCaller interface {
	TokenEndpoint() string
	HttpClient() *http.Client
}

func CallTokenEndpoint(ctx context.Context, request any, authFn any, caller TokenEndpointCaller) (*oauth2.Token, error) {
	ctx, span := Tracer.Start(ctx, "CallTokenEndpoint")
	defer span.End()

	req, err := httphelper.FormRequest(ctx, caller.TokenEndpoint(), request, Encoder, authFn)
	if err != nil {
		return nil, err
	}
	tokenRes := new(oidc.AccessTokenResponse)
	if err := httphelper.HttpRequestWithErrorTarget(caller.HttpClient(), req, &tokenRes, new(oidc.Error)); err != nil {
		return nil, err
	}
	if err := tokenRes.Validate(); err != nil {
		return nil, err
	}
	token := &oauth2.Token{
		AccessToken:  tokenRes.AccessToken,
		TokenType:    tokenRes.TokenType,
		RefreshToken: tokenRes.RefreshToken,
		Expiry:       time.Now().UTC().Add(time.Duration(tokenRes.ExpiresIn) * time.Second),
	}
	if tokenRes.IDToken != "" {
		token = token.WithExtra(map[string]any{
			"id_token": tokenRes.IDToken,
		})
	}
	return token, nil
}

type EndSessionCaller interface {
	GetEndSessionEndpoint() string
	HttpClient() *http.Client
}

// CallEndSessionEndpoint terminates the provider session and returns the
// redirect location the provider answered with, if any.
func CallEndSessionEndpoint(ctx context.Context, request any, authFn any, caller EndSessionCaller) (*url.URL, error) {
	ctx, span := Tracer.Start(ctx, "CallEndSessionEndpoint")
	defer span.End()

	req, err := httphelper.FormRequest(ctx, caller.GetEndSessionEndpoint(), request, Encoder, authFn)
	if err != nil {
		return nil, err
	}
	client := cloneWithoutRedirects(caller.HttpClient())
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("EndSession failure, %d status code: %s", resp.StatusCode, string(body))
	}
	location, err := resp.Location()
	if err != nil {
		if errors.Is(err, http.ErrNoLocation) {
			return nil, nil
		}
		return nil, err
	}
	return location, nil
}

type RevokeCaller interface {
	GetRevokeEndpoint() string
	HttpClient() *http.Client
}

// CallRevokeEndpoint revokes a token per RFC 7009. The response body is
// ignored on success, as all necessary information is conveyed in the
// response code.
func CallRevokeEndpoint(ctx context.Context, request any, authFn any, caller RevokeCaller) error {
	ctx, span := Tracer.Start(ctx, "CallRevokeEndpoint")
	defer span.End()

	req, err := httphelper.FormRequest(ctx, caller.GetRevokeEndpoint(), request, Encoder, authFn)
	if err != nil {
		return err
	}
	client := cloneWithoutRedirects(caller.HttpClient())
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err == nil {
			return fmt.Errorf("revoke returned status %d and text: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("revoke returned status %d", resp.StatusCode)
	}
	return nil
}

// cloneWithoutRedirects never mutates the caller's client, some are
// shared across goroutines.
func cloneWithoutRedirects(c *http.Client) *http.Client {
	clone := *c
	clone.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}
