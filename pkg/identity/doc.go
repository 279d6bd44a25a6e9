// Package identity maps validated SAML attributes to a local identity.
//
// An IdP may assert several values per attribute; this service only ever
// uses the first. Username and email are mandatory: a mapping failure is a
// login denial, never a crash.
package identity
