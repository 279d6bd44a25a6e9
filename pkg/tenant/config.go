package tenant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration indicates an invalid or incomplete tenant configuration.
// It is fatal at load time; request handlers never see a misconfigured tenant.
var ErrConfiguration = errors.New("tenant configuration error")

// AttributeMap translates logical identity fields to IdP-asserted claim names.
// Empty fields fall back to the package defaults in DefaultAttributeMap.
type AttributeMap struct {
	Email     string `yaml:"email"`
	Username  string `yaml:"username"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// DefaultAttributeMap returns the WS-Fed claim URIs historically asserted by
// Azure AD. Tenants fronted by IdPs that use plain claim names (e.g. Google
// directory sync) override these per field.
func DefaultAttributeMap() AttributeMap {
	return AttributeMap{
		Email:     "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
		Username:  "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
		FirstName: "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname",
		LastName:  "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname",
	}
}

// NewAccountPolicy controls the shape of auto-provisioned accounts.
type NewAccountPolicy struct {
	Active    *bool `yaml:"active"`
	Staff     *bool `yaml:"staff"`
	Superuser *bool `yaml:"superuser"`

	// DefaultPassword is the credential assigned to auto-created accounts.
	// A fixed tenant-wide password is a known weakness inherited from the
	// integration this service replaces; it is configurable precisely so
	// operators can rotate it, but SSO remains the only intended login path.
	DefaultPassword string `yaml:"default_password"`
}

// IsActive resolves the active flag, defaulting to true.
func (p NewAccountPolicy) IsActive() bool {
	if p.Active == nil {
		return true
	}
	return *p.Active
}

// IsStaff resolves the staff flag, defaulting to false.
func (p NewAccountPolicy) IsStaff() bool {
	return p.Staff != nil && *p.Staff
}

// IsSuperuser resolves the superuser flag, defaulting to false.
func (p NewAccountPolicy) IsSuperuser() bool {
	return p.Superuser != nil && *p.Superuser
}

// Config is the resolved settings for one tenant. Immutable once loaded.
type Config struct {
	ID string `yaml:"-"`

	// EntityID is optional; when empty the SAML layer derives the issuer
	// from the IdP metadata.
	EntityID string `yaml:"entity_id"`

	// Exactly one of MetadataFile and MetadataURL must be set.
	MetadataFile string `yaml:"metadata_file"`
	MetadataURL  string `yaml:"metadata_url"`

	// AssertionConsumerURL overrides the ACS location advertised to the
	// IdP. When empty it is derived from the registry base URL and the
	// tenant's ACS route.
	AssertionConsumerURL string `yaml:"assertion_consumer_url"`

	// DefaultNextURL is the post-login landing page when the caller did
	// not supply one.
	DefaultNextURL string `yaml:"default_next_url"`

	AttributeMap AttributeMap `yaml:"attribute_map"`

	// AutoCreateAccounts enables just-in-time provisioning. When false,
	// an asserted user without a local account is denied.
	AutoCreateAccounts bool             `yaml:"auto_create_accounts"`
	NewAccountPolicy   NewAccountPolicy `yaml:"new_account_policy"`

	// OrganizationName, when set, links every auto-created account to the
	// named organization record. Provisioning fails if the organization
	// does not exist.
	OrganizationName string `yaml:"organization"`

	// UnwrapNestedNext keeps compatibility with upstream gateways that
	// double-encode the next URL: one level of URL-decoding is applied and
	// a nested next= query parameter, if present, replaces the value.
	UnwrapNestedNext bool `yaml:"unwrap_nested_next"`
}

// Validate checks the per-tenant invariants.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: tenant id is required", ErrConfiguration)
	}
	hasFile := c.MetadataFile != ""
	hasURL := c.MetadataURL != ""
	if hasFile && hasURL {
		return fmt.Errorf("%w: tenant %q: metadata_file and metadata_url are mutually exclusive", ErrConfiguration, c.ID)
	}
	if !hasFile && !hasURL {
		return fmt.Errorf("%w: tenant %q: one of metadata_file or metadata_url is required", ErrConfiguration, c.ID)
	}
	if c.DefaultNextURL == "" {
		return fmt.Errorf("%w: tenant %q: default_next_url is required", ErrConfiguration, c.ID)
	}
	if c.AutoCreateAccounts && c.NewAccountPolicy.DefaultPassword == "" {
		return fmt.Errorf("%w: tenant %q: new_account_policy.default_password is required when auto_create_accounts is enabled", ErrConfiguration, c.ID)
	}
	return nil
}

// Attribute returns the IdP claim key for a logical field, falling back to
// the package default when the tenant left it unset.
func (c *Config) Attribute(field string) string {
	def := DefaultAttributeMap()
	switch field {
	case "email":
		return firstNonEmpty(c.AttributeMap.Email, def.Email)
	case "username":
		return firstNonEmpty(c.AttributeMap.Username, def.Username)
	case "first_name":
		return firstNonEmpty(c.AttributeMap.FirstName, def.FirstName)
	case "last_name":
		return firstNonEmpty(c.AttributeMap.LastName, def.LastName)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
