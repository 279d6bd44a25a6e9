package directory

import (
	"context"
	"errors"
	"time"
)

// MaxUsernameLength is the directory's username column width. Asserted
// usernames longer than this are truncated on provisioning.
const MaxUsernameLength = 150

// ErrAccountNotFound indicates no account exists for the asserted username
// and the tenant does not auto-provision.
var ErrAccountNotFound = errors.New("account not found")

// ErrLinkedResourceMissing indicates the organization a new account must be
// linked to does not exist. The whole reconciliation is aborted.
var ErrLinkedResourceMissing = errors.New("linked organization not found")

// Account is one local user record.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAccount is the provisioning input for a not-yet-persisted account.
type NewAccount struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	PasswordHash string
}

// Store is the user-directory contract.
type Store interface {
	// FindByUsername returns the account for username, or
	// ErrAccountNotFound.
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, acct NewAccount) (*Account, error)

	// CreateAccountLinked persists a new account and its membership in the
	// named organization in one transaction. Returns
	// ErrLinkedResourceMissing, and persists nothing, when the
	// organization does not exist.
	CreateAccountLinked(ctx context.Context, acct NewAccount, orgName string) (*Account, error)
}
