// Package session establishes and terminates browser sessions and carries
// the pending post-login redirect between the login-initiation and ACS
// endpoints.
//
// Authenticated sessions are rows keyed by a random id handed to the
// browser in an HttpOnly cookie. The pending next URL lives in a short-TTL
// cookie of its own: the initiation endpoint sets it and the ACS gate pops
// it exactly once (popping again is a no-op).
package session
