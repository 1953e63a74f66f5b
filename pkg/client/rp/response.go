package rp

import (
	"fmt"
	"io"
	"net/url"
	"slices"

	"github.com/zitadel/schema"

	httphelper "github.com/openidtools/oidc/pkg/http"
	"github.com/openidtools/oidc/pkg/oidc"
)

var responseDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ParseCodeResponse decodes the query of an authorization code flow
// redirect. When the provider answered with an error object, the error
// is returned as *oidc.Error. Callers that know the state or scope they
// sent can pass them for an echo check.
func ParseCodeResponse(values url.Values, expectedState string, expectedScopes []string) (*oidc.AuthResponseCode, error) {
	if err := responseError(values); err != nil {
		return nil, err
	}
	response := new(oidc.AuthResponseCode)
	if err := responseDecoder.Decode(response, values); err != nil {
		return nil, fmt.Errorf("%w: %v", oidc.ErrValidation, err)
	}
	if err := response.Validate(); err != nil {
		return nil, err
	}
	if err := checkEcho(expectedState, response.State, expectedScopes, response.Scope); err != nil {
		return nil, err
	}
	return response, nil
}

// ParseImplicitResponse decodes the fragment or form body of an implicit
// or hybrid flow response.
func ParseImplicitResponse(values url.Values, expectedState string, expectedScopes []string) (*oidc.AuthResponseImplicit, error) {
	if err := responseError(values); err != nil {
		return nil, err
	}
	response := new(oidc.AuthResponseImplicit)
	if err := responseDecoder.Decode(response, values); err != nil {
		return nil, fmt.Errorf("%w: %v", oidc.ErrValidation, err)
	}
	if err := response.Validate(); err != nil {
		return nil, err
	}
	if err := checkEcho(expectedState, response.State, expectedScopes, response.Scope); err != nil {
		return nil, err
	}
	return response, nil
}

// ParseFormPostResponse extracts the response fields from the
// auto-submitting HTML document of the form_post response mode and
// decodes them like an implicit response.
func ParseFormPostResponse(body io.Reader, expectedState string, expectedScopes []string) (*oidc.AuthResponseImplicit, error) {
	values, err := httphelper.ParseFormPostDocument(body)
	if err != nil {
		return nil, err
	}
	return ParseImplicitResponse(values, expectedState, expectedScopes)
}

// responseError surfaces an error member in redirect parameters as the
// wire error it is.
func responseError(values url.Values) error {
	if values.Get("error") == "" {
		return nil
	}
	return &oidc.Error{
		ErrorType:   oidc.ErrorType(values.Get("error")),
		Description: values.Get("error_description"),
		State:       values.Get("state"),
	}
}

func checkEcho(expectedState, state string, expectedScopes []string, scopes oidc.SpaceDelimitedArray) error {
	if expectedState != "" && state != expectedState {
		return fmt.Errorf("%w: state %q does not match expected %q", oidc.ErrValidation, state, expectedState)
	}
	if len(expectedScopes) == 0 || len(scopes) == 0 {
		return nil
	}
	for _, scope := range scopes {
		if !slices.Contains(expectedScopes, scope) {
			return fmt.Errorf("%w: scope %q was not requested", oidc.ErrValidation, scope)
		}
	}
	return nil
}
