package client

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	httphelper "github.com/openidtools/oidc/pkg/http"
	"github.com/openidtools/oidc/pkg/oidc"
)

// ResolveIssuerFromURL performs OpenID issuer discovery for a user
// supplied https identifier.
func ResolveIssuerFromURL(ctx context.Context, identifier string, httpClient *http.Client) (string, error) {
	u, err := url.Parse(identifier)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%w: identifier %q is not a valid https url", oidc.ErrValidation, identifier)
	}
	return resolveIssuer(ctx, u.Host, identifier, httpClient)
}

// ResolveIssuerFromEmail performs OpenID issuer discovery for an email
// style identifier. The WebFinger resource is the acct form of the
// address.
func ResolveIssuerFromEmail(ctx context.Context, email string, httpClient *http.Client) (string, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: identifier %q is not a valid email address", oidc.ErrValidation, email)
	}
	_, host, _ := strings.Cut(addr.Address, "@")
	return resolveIssuer(ctx, host, "acct:"+addr.Address, httpClient)
}

func resolveIssuer(ctx context.Context, host, resource string, httpClient *http.Client) (string, error) {
	ctx, span := Tracer.Start(ctx, "ResolveIssuer")
	defer span.End()

	query := url.Values{
		"resource": {resource},
		"rel":      {oidc.RelationIssuer},
	}
	endpoint := "https://" + host + oidc.WebFingerEndpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	response := new(oidc.WebFingerResponse)
	if err := httphelper.HttpRequest(httpClient, req, response); err != nil {
		return "", err
	}
	if response.Subject != resource {
		return "", fmt.Errorf("%w: webfinger subject %q does not match resource %q", oidc.ErrValidation, response.Subject, resource)
	}
	if response.Expires != 0 && response.Expires.AsTime().Before(time.Now()) {
		return "", fmt.Errorf("%w: webfinger response expired at %s", oidc.ErrValidation, response.Expires.AsTime())
	}
	issuer := response.IssuerLink()
	if issuer == "" {
		return "", fmt.Errorf("%w: webfinger response contains no issuer link", oidc.ErrValidation)
	}
	if u, err := url.Parse(issuer); err != nil || u.Scheme != "https" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: issuer %q must be an https url without query or fragment", oidc.ErrValidation, issuer)
	}
	return issuer, nil
}
