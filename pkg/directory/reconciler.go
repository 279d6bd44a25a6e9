package directory

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/refermd/samlgate/pkg/identity"
	"github.com/refermd/samlgate/pkg/tenant"
)

// Reconciler binds a mapped identity to a local account, provisioning one
// when the tenant allows it.
type Reconciler struct {
	store Store
}

// NewReconciler creates a reconciler over a directory store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile looks up the account for id.Username. When absent and the
// tenant auto-creates accounts, a new account is provisioned under the
// tenant's new-account policy (and linked to the tenant organization inside
// the same transaction when one is configured). isNew reports whether the
// account was created by this call.
func (r *Reconciler) Reconcile(ctx context.Context, id *identity.Identity, cfg *tenant.Config) (acct *Account, isNew bool, err error) {
	acct, err = r.store.FindByUsername(ctx, id.Username)
	if err == nil {
		return acct, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}
	if !cfg.AutoCreateAccounts {
		return nil, false, fmt.Errorf("tenant %s does not auto-create accounts: %w", cfg.ID, err)
	}

	policy := cfg.NewAccountPolicy
	hash, err := bcrypt.GenerateFromPassword([]byte(policy.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash default credential: %w", err)
	}

	newAcct := NewAccount{
		Username:     TruncateUsername(id.Username),
		Email:        id.Email,
		FirstName:    id.FirstName,
		LastName:     id.LastName,
		IsActive:     policy.IsActive(),
		IsStaff:      policy.IsStaff(),
		IsSuperuser:  policy.IsSuperuser(),
		PasswordHash: string(hash),
	}

	if cfg.OrganizationName != "" {
		acct, err = r.store.CreateAccountLinked(ctx, newAcct, cfg.OrganizationName)
	} else {
		acct, err = r.store.CreateAccount(ctx, newAcct)
	}
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

// TruncateUsername clips an asserted username to the directory column width.
func TruncateUsername(username string) string {
	runes := []rune(username)
	if len(runes) <= MaxUsernameLength {
		return username
	}
	return string(runes[:MaxUsernameLength])
}
