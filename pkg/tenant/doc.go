// Package tenant resolves tenant identifiers to service-provider settings.
//
// # Overview
//
// Each tenant is one SAML integration: where its IdP metadata lives, which
// attribute names the IdP asserts, where the browser lands after login, and
// what happens when an asserted user has no local account yet. Tenants are
// declared in a YAML registry file loaded once at startup and immutable
// afterwards.
//
// # Usage Example
//
//	reg, err := tenant.LoadRegistry("tenants.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg, err := reg.Resolve("maven")
//
// A tenant must name exactly one metadata source (metadata_file or
// metadata_url); anything else is a configuration error surfaced at load
// time, never at request time.
package tenant
