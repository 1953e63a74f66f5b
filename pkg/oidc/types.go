package oidc

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/zitadel/schema"
	"golang.org/x/text/language"
)

// Audience is the `aud` claim. The wire representation may be a single
// string or an array of strings, both are accepted on unmarshal.
type Audience []string

func (a *Audience) UnmarshalJSON(text []byte) error {
	var i any
	if err := json.Unmarshal(text, &i); err != nil {
		return err
	}
	switch aud := i.(type) {
	case []any:
		*a = make([]string, len(aud))
		for i, audience := range aud {
			s, ok := audience.(string)
			if !ok {
				return fmt.Errorf("oidc: audience entry %d is not a string", i)
			}
			(*a)[i] = s
		}
	case string:
		*a = []string{aud}
	}
	return nil
}

// Display requests how the OP presents the authentication UI.
type Display string

const (
	DisplayPage  Display = "page"
	DisplayPopup Display = "popup"
	DisplayTouch Display = "touch"
	DisplayWAP   Display = "wap"
)

var displayValues = map[string]Display{
	"page":  DisplayPage,
	"popup": DisplayPopup,
	"touch": DisplayTouch,
	"wap":   DisplayWAP,
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown values are dropped, leaving the zero value.
func (d *Display) UnmarshalText(text []byte) error {
	if display, ok := displayValues[string(text)]; ok {
		*d = display
	}
	return nil
}

type Prompt string

const (
	PromptNone          Prompt = "none"
	PromptLogin         Prompt = "login"
	PromptConsent       Prompt = "consent"
	PromptSelectAccount Prompt = "select_account"
)

type ResponseType string

const (
	ResponseTypeCode        ResponseType = "code"
	ResponseTypeIDToken     ResponseType = "id_token token"
	ResponseTypeIDTokenOnly ResponseType = "id_token"
)

// ResponseMode defines how the authorization response parameters are
// returned to the redirect URI.
type ResponseMode string

const (
	ResponseModeQuery    ResponseMode = "query"
	ResponseModeFragment ResponseMode = "fragment"
	ResponseModeFormPost ResponseMode = "form_post"
)

type GrantType string

const (
	GrantTypeCode              GrantType = "authorization_code"
	GrantTypeImplicit          GrantType = "implicit"
	GrantTypeRefreshToken      GrantType = "refresh_token"
	GrantTypeClientCredentials GrantType = "client_credentials"
	GrantTypeBearer            GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// AuthMethod is a client authentication method at the token endpoint.
type AuthMethod string

const (
	AuthMethodBasic         AuthMethod = "client_secret_basic"
	AuthMethodPost          AuthMethod = "client_secret_post"
	AuthMethodSecretJWT     AuthMethod = "client_secret_jwt"
	AuthMethodPrivateKeyJWT AuthMethod = "private_key_jwt"
	AuthMethodNone          AuthMethod = "none"
)

var AllAuthMethods = []AuthMethod{
	AuthMethodBasic, AuthMethodPost, AuthMethodSecretJWT,
	AuthMethodPrivateKeyJWT, AuthMethodNone,
}

// ClientAssertionTypeJWTAssertion is the `client_assertion_type` for
// client_secret_jwt and private_key_jwt authentication.
const ClientAssertionTypeJWTAssertion = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

type Gender string

// SpaceDelimitedArray is a list that serializes to a single
// space-delimited string on the wire (the OAuth2 scope convention).
type SpaceDelimitedArray []string

func (s SpaceDelimitedArray) String() string {
	return strings.Join(s, " ")
}

func (s SpaceDelimitedArray) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SpaceDelimitedArray) UnmarshalText(text []byte) error {
	*s = strings.Fields(string(text))
	return nil
}

func (s SpaceDelimitedArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SpaceDelimitedArray) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = strings.Fields(str)
	return nil
}

type Locales []language.Tag

func (l *Locales) UnmarshalText(text []byte) error {
	locales := strings.Fields(string(text))
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err == nil && !tag.IsRoot() {
			*l = append(*l, tag)
		}
	}
	return nil
}

func (l Locales) MarshalText() ([]byte, error) {
	tags := make([]string, len(l))
	for i, tag := range l {
		tags[i] = tag.String()
	}
	return []byte(strings.Join(tags, " ")), nil
}

// Time is a UNIX epoch-seconds timestamp. The zero value is treated as
// absent and omitted from the wire.
type Time int64

func (ts Time) AsTime() time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0)
}

func FromTime(tt time.Time) Time {
	if tt.IsZero() {
		return 0
	}
	return Time(tt.Unix())
}

func NowTime() Time {
	return FromTime(time.Now())
}

func (ts *Time) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*ts = Time(x)
	case nil:
		*ts = 0
	default:
		return fmt.Errorf("oidc.Time: unsupported type %T", v)
	}
	return nil
}

func (ts Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(ts))
}

// RequestObject is a signed and/or encrypted authorization request
// passed by value (`request`) or reference (`request_uri`).
type RequestObject string

// NewEncoder returns a schema encoder with the wire representations of
// the types above registered. Request messages encode to url.Values for
// query strings and form bodies through this single encoder.
func NewEncoder() *schema.Encoder {
	e := schema.NewEncoder()
	e.RegisterEncoder(SpaceDelimitedArray{}, func(value reflect.Value) string {
		return value.Interface().(SpaceDelimitedArray).String()
	})
	e.RegisterEncoder(Locales{}, func(value reflect.Value) string {
		text, _ := value.Interface().(Locales).MarshalText()
		return string(text)
	})
	e.RegisterEncoder(&ClaimsRequest{}, func(value reflect.Value) string {
		text, _ := value.Interface().(*ClaimsRequest).MarshalText()
		return string(text)
	})
	return e
}

// DefaultEncoder is used whenever a caller does not bring its own encoder.
var DefaultEncoder = NewEncoder()
