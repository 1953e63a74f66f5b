package rp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/openidtools/oidc/pkg/client"
	httphelper "github.com/openidtools/oidc/pkg/http"
	"github.com/openidtools/oidc/pkg/oidc"
)

// Userinfo will call the OIDC [UserInfo] Endpoint with the provided token and returns
// the response in an instance of type U.
// [*oidc.UserInfo] can be used as a good example, or use a custom type if type-safe
// access to custom claims is needed.
//
// [UserInfo]: https://openid.net/specs/openid-connect-core-1_0.html#UserInfo
func Userinfo[U SubjectGetter](ctx context.Context, token, tokenType, subject string, rp RelyingParty, opts ...UserinfoOpt) (userinfo U, err error) {
	var nilU U
	ctx = logCtxWithRPData(ctx, rp, "function", "Userinfo")
	ctx, span := client.Tracer.Start(ctx, "Userinfo")
	defer span.End()

	config := &userinfoConfig{useBearerHeader: true}
	for _, opt := range opts {
		opt(config)
	}

	req, err := userinfoRequest(ctx, rp.UserinfoEndpoint(), token, tokenType, config)
	if err != nil {
		return nilU, err
	}
	resp, err := rp.HttpClient().Do(req)
	if err != nil {
		return nilU, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nilU, fmt.Errorf("unable to read userinfo response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		oidcErr := new(oidc.Error)
		if json.Unmarshal(body, oidcErr) == nil && oidcErr.ErrorType != "" {
			return nilU, oidcErr
		}
		return nilU, &httphelper.StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}

	if isJWTUserinfo(resp, body) {
		body, err = decodeJWTUserinfo(ctx, string(body), rp, config)
		if err != nil {
			return nilU, err
		}
	}
	if err := json.Unmarshal(body, &userinfo); err != nil {
		return nilU, fmt.Errorf("failed to unmarshal userinfo: %v", err)
	}
	if subject != "" && userinfo.GetSubject() != subject {
		return nilU, ErrUserInfoSubNotMatching
	}
	return userinfo, nil
}

type userinfoConfig struct {
	useBearerHeader bool
	clientSecret    string
}

type UserinfoOpt func(*userinfoConfig)

// WithTokenInBody sends the access token as a form parameter instead of
// the Authorization header.
func WithTokenInBody() UserinfoOpt {
	return func(c *userinfoConfig) {
		c.useBearerHeader = false
	}
}

// WithUserinfoClientSecret makes HS256 signed userinfo responses
// verifiable, the secret being the MAC key.
func WithUserinfoClientSecret(secret string) UserinfoOpt {
	return func(c *userinfoConfig) {
		c.clientSecret = secret
	}
}

func userinfoRequest(ctx context.Context, endpoint, token, tokenType string, config *userinfoConfig) (*http.Request, error) {
	if config.useBearerHeader {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if tokenType == "" {
			tokenType = oidc.BearerToken
		}
		req.Header.Set("authorization", tokenType+" "+token)
		return req, nil
	}
	form := url.Values{"access_token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// isJWTUserinfo detects a signed or encrypted userinfo response, either
// by content type or by the compact serialization shape of the body.
func isJWTUserinfo(resp *http.Response, body []byte) bool {
	if contentType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && contentType == "application/jwt" {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	dots := strings.Count(trimmed, ".")
	return !strings.HasPrefix(trimmed, "{") && (dots == 2 || dots == 4)
}

// decodeJWTUserinfo unwraps a JWT userinfo response: decrypt the outer
// JWE with the RP's key when present, then verify the signature with the
// provider's keys (or the client secret for a MAC) and return the
// payload.
func decodeJWTUserinfo(ctx context.Context, token string, rp RelyingParty, config *userinfoConfig) ([]byte, error) {
	decrypted, err := DecryptToken(strings.TrimSpace(token), rp.DecryptionKey())
	if err != nil {
		return nil, err
	}
	var claims struct {
		oidc.TokenClaims
	}
	payload, err := oidc.ParseToken(decrypted, &claims)
	if err != nil {
		return nil, err
	}
	set := rp.IDTokenVerifier().KeySet
	supportedAlgs := rp.IDTokenVerifier().SupportedSignAlgs
	if config.clientSecret != "" {
		set = secretKeySet{secret: config.clientSecret}
		supportedAlgs = []string{string(jose.HS256)}
	}
	if err := oidc.CheckSignature(ctx, decrypted, payload, &claims, supportedAlgs, set); err != nil {
		return nil, err
	}
	return payload, nil
}

// secretKeySet verifies HMAC signatures keyed with the client secret.
type secretKeySet struct {
	secret string
}

func (s secretKeySet) VerifySignature(_ context.Context, jws *jose.JSONWebSignature) ([]byte, error) {
	return jws.Verify([]byte(s.secret))
}
