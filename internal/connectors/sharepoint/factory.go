package sharepoint

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.SessionFactory = (*Factory)(nil)

// Factory opens sessions for one identity. Token sources and HTTP clients
// are shared by every target on the same host.
type Factory struct {
	identity domain.Identity
	network  domain.NetworkSettings
	metrics  driven.MetricsRecorder
	signer   *assertionSigner

	base     *http.Transport
	tokenCtx context.Context

	mu      sync.Mutex
	clients map[string]*Client
}

// NewFactory builds the factory matching the identity class.
func NewFactory(
	identity domain.Identity, network domain.NetworkSettings, metrics driven.MetricsRecorder,
) (*Factory, error) {
	switch identity.Class {
	case domain.IdentityUser:
		return NewUserCredentialFactory(identity, network, metrics)
	case domain.IdentityApp:
		return NewCertificateFactory(identity, network, metrics)
	default:
		return nil, fmt.Errorf("%w: unknown identity class %q", domain.ErrConfiguration, identity.Class)
	}
}

// NewUserCredentialFactory opens sessions with a username and password.
func NewUserCredentialFactory(
	identity domain.Identity, network domain.NetworkSettings, metrics driven.MetricsRecorder,
) (*Factory, error) {
	if identity.Class != domain.IdentityUser {
		return nil, fmt.Errorf("%w: expected a user identity", domain.ErrConfiguration)
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return newFactory(identity, network, metrics, nil), nil
}

// NewCertificateFactory opens sessions as an application holding a certificate.
// The private key is loaded up front so a bad certificate fails before any request.
func NewCertificateFactory(
	identity domain.Identity, network domain.NetworkSettings, metrics driven.MetricsRecorder,
) (*Factory, error) {
	if identity.Class != domain.IdentityApp {
		return nil, fmt.Errorf("%w: expected an app identity", domain.ErrConfiguration)
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	signer, err := loadSigner(identity.App)
	if err != nil {
		return nil, err
	}
	return newFactory(identity, network, metrics, signer), nil
}

func newFactory(
	identity domain.Identity, network domain.NetworkSettings, metrics driven.MetricsRecorder, signer *assertionSigner,
) *Factory {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	base := newBaseTransport(network.InsecureSkipVerify)
	timeout := network.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tokenClient := &http.Client{Timeout: timeout, Transport: base}

	return &Factory{
		identity: identity,
		network:  network,
		metrics:  metrics,
		signer:   signer,
		base:     base,
		tokenCtx: withHTTPClient(context.Background(), tokenClient),
		clients:  make(map[string]*Client),
	}
}

// IdentityClass returns the class of the identity behind every session.
func (f *Factory) IdentityClass() domain.IdentityClass {
	return f.identity.Class
}

// Open returns a session bound to target. No request is made until the
// session is used.
func (f *Factory) Open(ctx context.Context, target domain.Target) (driven.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scope, err := resourceScope(strings.TrimSpace(target.String()))
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	client, ok := f.clients[scope]
	if !ok {
		source := oauth2.ReuseTokenSource(nil, f.tokenSource(scope))
		client = NewClient(newAuthorizedClient(f.base, source, f.network.Timeout), f.metrics, f.network.MaxRetries)
		f.clients[scope] = client
	}
	return NewSession(client, target), nil
}

func (f *Factory) tokenSource(scope string) oauth2.TokenSource {
	if f.identity.Class == domain.IdentityApp {
		return newCertificateSource(f.tokenCtx, f.identity.App, f.signer, f.identity.Authority, scope)
	}
	return newPasswordSource(f.tokenCtx, f.identity.User, f.identity.Authority, scope)
}
