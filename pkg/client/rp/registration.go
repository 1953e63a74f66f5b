package rp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openidtools/oidc/pkg/client"
	"github.com/openidtools/oidc/pkg/oidc"
)

// ErrNoRegistrationEndpoint is returned when the provider's discovery
// document does not advertise dynamic registration.
var ErrNoRegistrationEndpoint = fmt.Errorf("%w: provider has no registration_endpoint", oidc.ErrValidation)

// Register performs dynamic client registration against the provider the
// RP was discovered from and returns the issued client information.
// When the metadata names a sector_identifier_uri, the referenced
// document is fetched and checked to contain every redirect URI of the
// registration before the request is sent.
func Register(ctx context.Context, rp RelyingParty, metadata *oidc.ClientMetadata, initialAccessToken string) (*oidc.ClientInformationResponse, error) {
	ctx = logCtxWithRPData(ctx, rp, "function", "Register")
	ctx, span := client.Tracer.Start(ctx, "Register")
	defer span.End()

	endpoint := rp.GetRegistrationEndpoint()
	if endpoint == "" {
		return nil, ErrNoRegistrationEndpoint
	}
	if metadata.SectorIdentifierURI != "" {
		if err := checkSectorIdentifier(ctx, metadata, rp.HttpClient()); err != nil {
			return nil, err
		}
	}
	return client.CallRegistrationEndpoint(ctx, endpoint, metadata, initialAccessToken, rp.HttpClient())
}

// checkSectorIdentifier fetches the sector_identifier_uri document, a
// JSON array of redirect URIs, and requires all registered redirect URIs
// to be listed in it.
func checkSectorIdentifier(ctx context.Context, metadata *oidc.ClientMetadata, httpClient *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadata.SectorIdentifierURI, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: sector_identifier_uri returned status %d", oidc.ErrValidation, resp.StatusCode)
	}
	var listed []string
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return fmt.Errorf("%w: sector_identifier_uri document is not a JSON array: %v", oidc.ErrValidation, err)
	}
	allowed := make(map[string]bool, len(listed))
	for _, uri := range listed {
		allowed[uri] = true
	}
	for _, uri := range metadata.RedirectURIs {
		if !allowed[uri] {
			return fmt.Errorf("%w: redirect_uri %q is not listed in the sector_identifier_uri document", oidc.ErrValidation, uri)
		}
	}
	return nil
}
