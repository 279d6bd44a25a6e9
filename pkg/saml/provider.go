package saml

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	saml2 "github.com/russellhaering/gosaml2"
	"github.com/russellhaering/gosaml2/types"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/refermd/samlgate/pkg/identity"
	"github.com/refermd/samlgate/pkg/tenant"
)

// ErrAssertionInvalid indicates the SAML toolkit rejected an inbound
// response: bad signature, expired, malformed, or wrong audience. All such
// failures are treated identically as a login denial.
var ErrAssertionInvalid = errors.New("saml assertion invalid")

// Validator is the assertion-validator contract consumed by the HTTP layer.
type Validator interface {
	// Validate parses and verifies a raw POSTed SAMLResponse (base64) and
	// returns the asserted attributes.
	Validate(rawResponse string) (identity.Attributes, error)

	// AuthnRedirectURL builds the IdP redirect for SP-initiated login.
	AuthnRedirectURL(relayState string) (string, error)
}

// Factory builds a Validator for a tenant. The HTTP layer depends on this
// indirection so tests can substitute a stub.
type Factory func(cfg *tenant.Config) (Validator, error)

// metadataClient fetches remote IdP metadata. Metadata endpoints are
// expected to answer quickly; a hung IdP must not hang logins forever.
var metadataClient = &http.Client{Timeout: 15 * time.Second}

// ServiceProvider is a per-tenant SAML service provider backed by gosaml2.
type ServiceProvider struct {
	tenantID string
	sp       *saml2.SAMLServiceProvider
}

var _ Validator = (*ServiceProvider)(nil)

// NewServiceProvider builds a service provider from tenant configuration
// and the tenant's IdP metadata.
func NewServiceProvider(cfg *tenant.Config) (*ServiceProvider, error) {
	raw, err := loadMetadata(cfg)
	if err != nil {
		return nil, err
	}

	metadata := &types.EntityDescriptor{}
	if err := xml.Unmarshal(raw, metadata); err != nil {
		return nil, fmt.Errorf("tenant %s: parse IdP metadata: %w", cfg.ID, err)
	}
	if metadata.IDPSSODescriptor == nil {
		return nil, fmt.Errorf("tenant %s: IdP metadata has no IDPSSODescriptor", cfg.ID)
	}

	certStore := &dsig.MemoryX509CertificateStore{Roots: []*x509.Certificate{}}
	for _, kd := range metadata.IDPSSODescriptor.KeyDescriptors {
		for _, xcert := range kd.KeyInfo.X509Data.X509Certificates {
			if xcert.Data == "" {
				continue
			}
			// Metadata frequently wraps certificate bodies in whitespace.
			der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(xcert.Data), ""))
			if err != nil {
				return nil, fmt.Errorf("tenant %s: decode IdP certificate: %w", cfg.ID, err)
			}
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				return nil, fmt.Errorf("tenant %s: parse IdP certificate: %w", cfg.ID, err)
			}
			certStore.Roots = append(certStore.Roots, cert)
		}
	}
	if len(certStore.Roots) == 0 {
		return nil, fmt.Errorf("tenant %s: IdP metadata contains no signing certificates", cfg.ID)
	}

	ssoURL := ""
	for _, svc := range metadata.IDPSSODescriptor.SingleSignOnServices {
		if svc.Binding == saml2.BindingHttpRedirect {
			ssoURL = svc.Location
			break
		}
		if ssoURL == "" {
			ssoURL = svc.Location
		}
	}
	if ssoURL == "" {
		return nil, fmt.Errorf("tenant %s: IdP metadata has no SSO endpoint", cfg.ID)
	}

	// The SP entity id defaults to the ACS location when the tenant does
	// not override it.
	issuer := cfg.EntityID
	if issuer == "" {
		issuer = cfg.AssertionConsumerURL
	}

	sp := &saml2.SAMLServiceProvider{
		IdentityProviderSSOURL:      ssoURL,
		IdentityProviderIssuer:      metadata.EntityID,
		ServiceProviderIssuer:       issuer,
		AssertionConsumerServiceURL: cfg.AssertionConsumerURL,
		AudienceURI:                 issuer,
		IDPCertificateStore:         certStore,
		SignAuthnRequests:           false,
		AllowMissingAttributes:      true,
	}

	return &ServiceProvider{tenantID: cfg.ID, sp: sp}, nil
}

// loadMetadata reads IdP metadata from the tenant's local file or remote URL.
func loadMetadata(cfg *tenant.Config) ([]byte, error) {
	if cfg.MetadataFile != "" {
		data, err := os.ReadFile(cfg.MetadataFile)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: read IdP metadata: %w", cfg.ID, err)
		}
		return data, nil
	}

	resp, err := metadataClient.Get(cfg.MetadataURL)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: fetch IdP metadata: %w", cfg.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tenant %s: fetch IdP metadata: unexpected status %d", cfg.ID, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: read IdP metadata response: %w", cfg.ID, err)
	}
	return data, nil
}

// Validate parses and verifies a base64 SAMLResponse and returns its
// attribute statement. Any toolkit failure collapses to ErrAssertionInvalid.
func (p *ServiceProvider) Validate(rawResponse string) (identity.Attributes, error) {
	if rawResponse == "" {
		return nil, fmt.Errorf("%w: empty response", ErrAssertionInvalid)
	}

	info, err := p.sp.RetrieveAssertionInfo(rawResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}
	if info.WarningInfo != nil {
		if info.WarningInfo.InvalidTime {
			return nil, fmt.Errorf("%w: assertion outside validity window", ErrAssertionInvalid)
		}
		if info.WarningInfo.NotInAudience {
			return nil, fmt.Errorf("%w: assertion not addressed to this service provider", ErrAssertionInvalid)
		}
	}

	attrs := make(identity.Attributes, len(info.Values))
	for name, attr := range info.Values {
		values := make([]string, 0, len(attr.Values))
		for _, v := range attr.Values {
			values = append(values, v.Value)
		}
		attrs[name] = values
	}
	return attrs, nil
}

// AuthnRedirectURL builds the redirect to the IdP SSO endpoint.
func (p *ServiceProvider) AuthnRedirectURL(relayState string) (string, error) {
	authURL, err := p.sp.BuildAuthURL(relayState)
	if err != nil {
		return "", fmt.Errorf("tenant %s: build authn redirect: %w", p.tenantID, err)
	}
	return authURL, nil
}
