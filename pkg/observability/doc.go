// Package observability exposes Prometheus metrics for the login flows.
//
// Every login attempt increments exactly one outcome counter, labelled by
// tenant and outcome, so operators can see per-tenant denial causes without
// any of that detail reaching the browser.
package observability
