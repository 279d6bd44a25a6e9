package web

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/refermd/samlgate/pkg/directory"
	"github.com/refermd/samlgate/pkg/identity"
	"github.com/refermd/samlgate/pkg/observability"
	"github.com/refermd/samlgate/pkg/saml"
	"github.com/refermd/samlgate/pkg/session"
	"github.com/refermd/samlgate/pkg/tenant"
)

// DeniedPath is the shared denial landing page.
const DeniedPath = "/denied"

// Handlers handles the SAML login HTTP surface.
type Handlers struct {
	registry   *tenant.Registry
	factory    saml.Factory
	reconciler *directory.Reconciler
	sessions   *session.Manager
	metrics    *observability.Metrics
	log        *logrus.Logger

	mu         sync.Mutex
	validators map[string]saml.Validator
}

// NewHandlers wires the login flow. factory may be nil, in which case the
// gosaml2-backed validator is used.
func NewHandlers(registry *tenant.Registry, factory saml.Factory, reconciler *directory.Reconciler,
	sessions *session.Manager, metrics *observability.Metrics, log *logrus.Logger) *Handlers {
	if factory == nil {
		factory = func(cfg *tenant.Config) (saml.Validator, error) {
			return saml.NewServiceProvider(cfg)
		}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Handlers{
		registry:   registry,
		factory:    factory,
		reconciler: reconciler,
		sessions:   sessions,
		metrics:    metrics,
		log:        log,
		validators: make(map[string]saml.Validator),
	}
}

// RegisterRoutes registers the login routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sso/{tenant}/login", h.signin).Methods("GET")
	router.HandleFunc("/sso/{tenant}/acs", h.acs).Methods("POST")
	router.HandleFunc("/sso/signout", h.signout).Methods("GET", "POST")
	router.HandleFunc(DeniedPath, h.denied).Methods("GET")

	// Route shapes kept for integrations predating the /sso prefix.
	router.HandleFunc("/{tenant}/login", h.signin).Methods("GET")
	router.HandleFunc("/{tenant}_acs/", h.acs).Methods("POST")
}

// validator returns the cached per-tenant validator, building it on first
// use. Tenant config is immutable, so caching is safe.
func (h *Handlers) validator(cfg *tenant.Config) (saml.Validator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.validators[cfg.ID]; ok {
		return v, nil
	}
	v, err := h.factory(cfg)
	if err != nil {
		return nil, err
	}
	h.validators[cfg.ID] = v
	return v, nil
}

// signin handles GET /sso/{tenant}/login?next=<url>. It validates the
// requested redirect target, stores it, and bounces the browser to the IdP.
func (h *Handlers) signin(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant"]
	cfg, err := h.registry.Resolve(tenantID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	log := h.log.WithFields(logrus.Fields{"tenant": tenantID, "stage": "signin"})

	nextURL := r.URL.Query().Get("next")
	if nextURL == "" {
		nextURL = cfg.DefaultNextURL
	}
	if cfg.UnwrapNestedNext {
		nextURL = unwrapNext(nextURL)
	}

	if !isSafeRedirect(nextURL) {
		log.WithField("next", nextURL).Warn(ErrOpenRedirectRejected.Error())
		h.deny(w, r, tenantID, observability.OutcomeDeniedRedirect)
		return
	}

	session.SetLoginNext(w, nextURL)

	v, err := h.validator(cfg)
	if err != nil {
		log.WithError(err).Error("failed to build SAML validator")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAssertion)
		return
	}
	authURL, err := v.AuthnRedirectURL("")
	if err != nil {
		log.WithError(err).Error("failed to build authn redirect")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAssertion)
		return
	}

	h.metrics.SigninsInitiated.WithLabelValues(tenantID).Inc()
	http.Redirect(w, r, authURL, http.StatusFound)
}

// acs handles POST /sso/{tenant}/acs: assertion validation, attribute
// mapping, account reconciliation, and session establishment.
func (h *Handlers) acs(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenant"]
	cfg, err := h.registry.Resolve(tenantID)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	log := h.log.WithFields(logrus.Fields{"tenant": tenantID, "stage": "acs"})

	if err := r.ParseForm(); err != nil {
		log.WithError(err).Warn("failed to parse ACS form")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAssertion)
		return
	}
	raw := r.PostFormValue("SAMLResponse")
	if raw == "" {
		log.Warn("missing SAMLResponse")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAssertion)
		return
	}

	v, err := h.validator(cfg)
	if err != nil {
		log.WithError(err).Error("failed to build SAML validator")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAssertion)
		return
	}

	attrs, err := v.Validate(raw)
	if err != nil {
		log.WithError(err).Warn("assertion rejected")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAssertion)
		return
	}

	ident, err := identity.Map(attrs, cfg)
	if err != nil {
		log.WithError(err).Warn("attribute mapping failed")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAttribute)
		return
	}

	acct, isNew, err := h.reconciler.Reconcile(r.Context(), ident, cfg)
	if err != nil {
		outcome := observability.OutcomeDeniedAccount
		if errors.Is(err, directory.ErrLinkedResourceMissing) {
			outcome = observability.OutcomeDeniedLinkage
		}
		log.WithError(err).Warn("account reconciliation failed")
		h.deny(w, r, tenantID, outcome)
		return
	}
	if isNew {
		h.metrics.AccountsCreated.WithLabelValues(tenantID).Inc()
		log.WithField("username", acct.Username).Info("provisioned new account")
	}

	if !acct.IsActive {
		log.WithField("username", acct.Username).Warn("inactive account")
		h.deny(w, r, tenantID, observability.OutcomeDeniedInactive)
		return
	}

	if _, err := h.sessions.Establish(r.Context(), w, acct.Username); err != nil {
		log.WithError(err).Error("failed to establish session")
		h.deny(w, r, tenantID, observability.OutcomeDeniedAccount)
		return
	}

	target := session.PopLoginNext(w, r)
	if target == "" || !isSafeRedirect(target) {
		target = cfg.DefaultNextURL
	}

	h.metrics.RecordLogin(tenantID, observability.OutcomeOK)
	log.WithField("username", acct.Username).Info("authenticated")
	http.Redirect(w, r, target, http.StatusFound)
}

// signout terminates the session and renders a confirmation page.
func (h *Handlers) signout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Terminate(r.Context(), w, r); err != nil {
		h.log.WithField("stage", "signout").WithError(err).Error("failed to terminate session")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(signoutPage))
}

// denied renders the shared denial page.
func (h *Handlers) denied(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(deniedPage))
}

func (h *Handlers) deny(w http.ResponseWriter, r *http.Request, tenantID, outcome string) {
	h.metrics.RecordLogin(tenantID, outcome)
	http.Redirect(w, r, DeniedPath, http.StatusFound)
}

const signoutPage = `<!DOCTYPE html>
<html>
<head><title>Signed out</title></head>
<body>
<h1>You have been signed out</h1>
<p>Your session has ended. Close this window or sign in again through your organization's portal.</p>
</body>
</html>
`

const deniedPage = `<!DOCTYPE html>
<html>
<head><title>Access denied</title></head>
<body>
<h1>Access denied</h1>
<p>We could not sign you in. Contact your administrator if the problem persists.</p>
</body>
</html>
`
