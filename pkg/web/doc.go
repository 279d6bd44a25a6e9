// Package web is the HTTP surface of the service: per-tenant login
// initiation and assertion-consumer endpoints, signout, and the shared
// denied page.
//
// # Failure policy
//
// Every failure after routing collapses to a 302 to /denied. Which stage
// failed (assertion validation, attribute mapping, account reconciliation,
// inactive account, unsafe redirect) is visible only in logs and metrics,
// never in the response.
package web
