package identity

import (
	"errors"
	"fmt"

	"github.com/refermd/samlgate/pkg/tenant"
)

// ErrMissingAttribute indicates a required attribute was absent or empty in
// the validated assertion. Callers treat it as a denial.
var ErrMissingAttribute = errors.New("missing identity attribute")

// Attributes is the validated output of the assertion validator: attribute
// key to ordered value sequence, scoped to one request.
type Attributes map[string][]string

// First returns the first value asserted for key, or "".
func (a Attributes) First(key string) string {
	if vs, ok := a[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Identity is the mapped local identity derived from one assertion.
// Username and Email are always non-empty; names may be blank.
type Identity struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Map extracts an Identity from validated attributes using the tenant's
// attribute map. Fails with ErrMissingAttribute when the email or username
// key is absent from the assertion.
func Map(attrs Attributes, cfg *tenant.Config) (*Identity, error) {
	email := attrs.First(cfg.Attribute("email"))
	if email == "" {
		return nil, fmt.Errorf("%w: email (key %q)", ErrMissingAttribute, cfg.Attribute("email"))
	}
	username := attrs.First(cfg.Attribute("username"))
	if username == "" {
		return nil, fmt.Errorf("%w: username (key %q)", ErrMissingAttribute, cfg.Attribute("username"))
	}
	return &Identity{
		Username:  username,
		Email:     email,
		FirstName: attrs.First(cfg.Attribute("first_name")),
		LastName:  attrs.First(cfg.Attribute("last_name")),
	}, nil
}
