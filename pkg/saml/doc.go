// Package saml wraps the gosaml2 toolkit behind the two operations this
// service needs: validating an inbound assertion and building the
// SP-initiated login redirect.
//
// The service-provider posture matches the integrations this service was
// built for: authn requests are not signed, assertions must be signed,
// responses are not required to be signed, and IdP-initiated (unsolicited)
// responses are accepted. IdP signing certificates and the SSO endpoint are
// taken from IdP metadata, loaded from a local file or fetched over HTTPS
// depending on tenant configuration.
//
// Validation failures are deliberately opaque: every toolkit error is
// wrapped in ErrAssertionInvalid so callers can deny uniformly without
// leaking validator internals to the browser.
package saml
