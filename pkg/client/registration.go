package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	httphelper "github.com/openidtools/oidc/pkg/http"
	"github.com/openidtools/oidc/pkg/oidc"
)

// CallRegistrationEndpoint registers a client at the provider's dynamic
// registration endpoint (RFC 7591). The initial access token is optional,
// providers with open registration accept unauthenticated requests.
func CallRegistrationEndpoint(ctx context.Context, endpoint string, request *oidc.ClientRegistrationRequest, initialAccessToken string, httpClient *http.Client) (*oidc.ClientInformationResponse, error) {
	ctx, span := Tracer.Start(ctx, "CallRegistrationEndpoint")
	defer span.End()

	if err := request.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if initialAccessToken != "" {
		httphelper.AuthorizeBearer(initialAccessToken)(req)
	}
	registration := new(oidc.ClientInformationResponse)
	if err := httphelper.HttpRequestWithErrorTarget(httpClient, req, registration, new(oidc.Error)); err != nil {
		return nil, err
	}
	if err := registration.Validate(); err != nil {
		return nil, err
	}
	return registration, nil
}
