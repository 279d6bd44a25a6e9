package tenant

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every configured tenant, keyed by tenant id. Read-only
// after LoadRegistry returns.
type Registry struct {
	// BaseURL is the externally visible origin of this service, used to
	// derive ACS endpoints for tenants that do not override them.
	BaseURL string

	tenants map[string]*Config
}

// registryFile is the on-disk YAML shape.
type registryFile struct {
	BaseURL string             `yaml:"base_url"`
	Tenants map[string]*Config `yaml:"tenants"`
}

// LoadRegistry reads and validates the tenant registry from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read registry: %v", ErrConfiguration, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a registry from raw YAML.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse registry: %v", ErrConfiguration, err)
	}
	if file.BaseURL == "" {
		file.BaseURL = envOr("SAMLGATE_BASE_URL", "")
	}
	if file.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfiguration)
	}
	if len(file.Tenants) == 0 {
		return nil, fmt.Errorf("%w: no tenants configured", ErrConfiguration)
	}

	reg := &Registry{
		BaseURL: strings.TrimRight(file.BaseURL, "/"),
		tenants: make(map[string]*Config, len(file.Tenants)),
	}
	for id, cfg := range file.Tenants {
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.ID = id
		if cfg.AssertionConsumerURL == "" {
			cfg.AssertionConsumerURL = fmt.Sprintf("%s/sso/%s/acs", reg.BaseURL, id)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		reg.tenants[id] = cfg
	}
	return reg, nil
}

// Resolve returns the configuration for a tenant id.
func (r *Registry) Resolve(id string) (*Config, error) {
	cfg, ok := r.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tenant %q", ErrConfiguration, id)
	}
	return cfg, nil
}

// IDs lists configured tenant ids in stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
