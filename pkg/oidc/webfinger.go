package oidc

const (
	// WebFingerEndpoint is the well-known path queried to locate the
	// issuer for a user-supplied identifier (RFC 7033).
	WebFingerEndpoint = "/.well-known/webfinger"

	// RelationIssuer is the link relation identifying the OpenID Provider
	// issuer in a WebFinger response.
	RelationIssuer = "http://openid.net/specs/connect/1.0/issuer"
)

// WebFingerResponse is the JRD document returned by a WebFinger lookup.
type WebFingerResponse struct {
	Subject string          `json:"subject,omitempty"`
	Aliases []string        `json:"aliases,omitempty"`
	Expires Time            `json:"expires,omitempty"`
	Links   []WebFingerLink `json:"links,omitempty"`
}

type WebFingerLink struct {
	Rel  string `json:"rel,omitempty"`
	Href string `json:"href,omitempty"`
	Type string `json:"type,omitempty"`
}

// IssuerLink returns the href of the link whose rel is the OIDC issuer
// relation, or an empty string when the document carries none.
func (w *WebFingerResponse) IssuerLink() string {
	for _, link := range w.Links {
		if link.Rel == RelationIssuer {
			return link.Href
		}
	}
	return ""
}
