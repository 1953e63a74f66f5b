package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jose "github.com/go-jose/go-jose/v4"
)

var ErrNotUnsecured = errors.New("token is not an unsecured jwt")

func Sign(object any, signer jose.Signer) (string, error) {
	payload, err := json.Marshal(object)
	if err != nil {
		return "", err
	}
	return SignPayload(payload, signer)
}

func SignPayload(payload []byte, signer jose.Signer) (string, error) {
	if signer == nil {
		return "", errors.New("missing signer")
	}
	result, err := signer.Sign(payload)
	if err != nil {
		return "", err
	}
	return result.CompactSerialize()
}

// SignUnsecured serializes the object as a JWT with alg "none" and an
// empty signature part. go-jose refuses to create those, so the segments
// are assembled by hand.
func SignUnsecured(object any) (string, error) {
	payload, err := json.Marshal(object)
	if err != nil {
		return "", err
	}
	header, err := json.Marshal(map[string]string{"alg": "none"})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + ".", nil
}

// ParseUnsecured decodes the payload of an unsecured (alg "none") JWT
// into claims. It fails if the token carries a signature.
func ParseUnsecured(token string, claims any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: invalid number of segments", ErrNotUnsecured)
	}
	if parts[2] != "" {
		return fmt.Errorf("%w: unexpected signature", ErrNotUnsecured)
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotUnsecured, err)
	}
	var head struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(header, &head); err != nil {
		return fmt.Errorf("%w: %v", ErrNotUnsecured, err)
	}
	if head.Alg != "none" {
		return fmt.Errorf("%w: alg %q", ErrNotUnsecured, head.Alg)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotUnsecured, err)
	}
	return json.Unmarshal(payload, claims)
}
