// Package directory is the local account store and the reconciliation
// logic that binds an asserted SAML identity to an account.
//
// # Overview
//
// Accounts are looked up by username. Tenants that allow just-in-time
// provisioning get a new account on first login, shaped by the tenant's
// new-account policy; tenants that link accounts to an organization do so
// in the same transaction, so a missing organization aborts provisioning
// entirely rather than leaving a half-created account.
//
// The Store interface decouples reconciliation from the SQL layer; the
// shipped implementation runs on database/sql against Postgres or SQLite.
package directory
