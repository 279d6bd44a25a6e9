package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestConfigValidate_MetadataSource(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "local file only",
			config: Config{
				ID:             "maven",
				MetadataFile:   "/etc/samlgate/maven-idp.xml",
				DefaultNextURL: "/start",
			},
			expectError: false,
		},
		{
			name: "remote url only",
			config: Config{
				ID:             "tch",
				MetadataURL:    "https://idp.example.com/metadata",
				DefaultNextURL: "/start",
			},
			expectError: false,
		},
		{
			name: "both sources",
			config: Config{
				ID:             "maven",
				MetadataFile:   "/etc/samlgate/maven-idp.xml",
				MetadataURL:    "https://idp.example.com/metadata",
				DefaultNextURL: "/start",
			},
			expectError: true,
			errorMsg:    "mutually exclusive",
		},
		{
			name: "neither source",
			config: Config{
				ID:             "maven",
				DefaultNextURL: "/start",
			},
			expectError: true,
			errorMsg:    "one of metadata_file or metadata_url is required",
		},
		{
			name: "missing default next url",
			config: Config{
				ID:           "maven",
				MetadataFile: "/etc/samlgate/maven-idp.xml",
			},
			expectError: true,
			errorMsg:    "default_next_url is required",
		},
		{
			name: "auto create without default password",
			config: Config{
				ID:                 "tch",
				MetadataURL:        "https://idp.example.com/metadata",
				DefaultNextURL:     "/start",
				AutoCreateAccounts: true,
			},
			expectError: true,
			errorMsg:    "default_password is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfiguration)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRegistry(t *testing.T) {
	data := []byte(`
base_url: https://sso.example.com/
tenants:
  maven:
    metadata_url: https://idp.example.com/metadata
    default_next_url: /bok/
    attribute_map:
      email: email
      username: email
  tch:
    metadata_file: /etc/samlgate/tch-idp.xml
    default_next_url: /rfr/dashboard
    auto_create_accounts: true
    organization: "Texas Children's Hospital - Pathology"
    new_account_policy:
      default_password: rotate-me
`)

	reg, err := ParseRegistry(data)
	require.NoError(t, err)
	assert.Equal(t, "https://sso.example.com", reg.BaseURL)
	assert.Equal(t, []string{"maven", "tch"}, reg.IDs())

	maven, err := reg.Resolve("maven")
	require.NoError(t, err)
	assert.Equal(t, "maven", maven.ID)
	assert.Equal(t, "https://sso.example.com/sso/maven/acs", maven.AssertionConsumerURL)
	assert.False(t, maven.AutoCreateAccounts)

	tch, err := reg.Resolve("tch")
	require.NoError(t, err)
	assert.True(t, tch.AutoCreateAccounts)
	assert.Equal(t, "Texas Children's Hospital - Pathology", tch.OrganizationName)

	_, err = reg.Resolve("unknown")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParseRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no base url", data: "tenants:\n  maven:\n    metadata_url: https://idp.example.com/m\n    default_next_url: /"},
		{name: "no tenants", data: "base_url: https://sso.example.com"},
		{name: "bad yaml", data: "tenants: ["},
		{
			name: "tenant with both metadata sources",
			data: `
base_url: https://sso.example.com
tenants:
  maven:
    metadata_url: https://idp.example.com/m
    metadata_file: /etc/idp.xml
    default_next_url: /
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.data))
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestConfigAttribute_Defaults(t *testing.T) {
	cfg := &Config{ID: "tch"}
	assert.Equal(t, "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name", cfg.Attribute("email"))
	assert.Equal(t, "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname", cfg.Attribute("first_name"))
	assert.Equal(t, "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname", cfg.Attribute("last_name"))

	cfg.AttributeMap.Email = "email"
	assert.Equal(t, "email", cfg.Attribute("email"))
	assert.Equal(t, "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name", cfg.Attribute("username"))

	assert.Equal(t, "", cfg.Attribute("shoe_size"))
}

func TestNewAccountPolicy_Defaults(t *testing.T) {
	var p NewAccountPolicy
	assert.True(t, p.IsActive())
	assert.False(t, p.IsStaff())
	assert.False(t, p.IsSuperuser())

	p = NewAccountPolicy{Active: boolPtr(false), Staff: boolPtr(true), Superuser: boolPtr(true)}
	assert.False(t, p.IsActive())
	assert.True(t, p.IsStaff())
	assert.True(t, p.IsSuperuser())
}
