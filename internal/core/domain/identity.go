package domain

import (
	"fmt"
	"strings"
	"time"
)

// IdentityClass distinguishes the credential type behind a session.
// The platform throttles the two classes differently.
type IdentityClass string

// Identity classes.
const (
	// IdentityUser is a basic username/password credential.
	IdentityUser IdentityClass = "user"

	// IdentityApp is a certificate-bound application registration.
	IdentityApp IdentityClass = "app"
)

// ParseIdentityClass parses "user"/"app" and the numbered menu aliases.
func ParseIdentityClass(s string) (IdentityClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "user_pass", "password", "1":
		return IdentityUser, nil
	case "app", "azure", "certificate", "2":
		return IdentityApp, nil
	default:
		return "", fmt.Errorf("%w: auth method %q, want user or app", ErrConfiguration, s)
	}
}

// String returns the class identifier.
func (c IdentityClass) String() string {
	return string(c)
}

// ThrottlePolicy maps an identity class to its minimum request spacing.
type ThrottlePolicy map[IdentityClass]time.Duration

// DefaultThrottlePolicy mirrors the platform's observed tiers:
// about 10 requests/second for user sessions and 25 for app sessions.
func DefaultThrottlePolicy() ThrottlePolicy {
	return ThrottlePolicy{
		IdentityUser: 100 * time.Millisecond,
		IdentityApp:  40 * time.Millisecond,
	}
}

// Interval returns the spacing for a class, falling back to the slowest tier.
func (p ThrottlePolicy) Interval(class IdentityClass) time.Duration {
	if d, ok := p[class]; ok {
		return d
	}
	var slowest time.Duration
	for _, d := range p {
		if d > slowest {
			slowest = d
		}
	}
	return slowest
}

// UserCredential is the basic-credential identity descriptor.
type UserCredential struct {
	Username string
	Password string

	// Tenant is the directory tenant (domain or GUID); "organizations" when empty.
	Tenant string

	// ClientID is the public client application used for the password grant.
	ClientID string
}

// CertificateCredential is the certificate-bound application identity descriptor.
type CertificateCredential struct {
	ClientID   string
	Tenant     string
	Thumbprint string

	// CertificatePath is a PEM file holding the private key, or a PKCS#12 bundle.
	CertificatePath string

	// Password unlocks a PKCS#12 bundle.
	Password string
}

// Identity is the session descriptor handed to the session factory.
// Exactly one of User or App is set, matching Class.
type Identity struct {
	Class IdentityClass
	User  *UserCredential
	App   *CertificateCredential

	// Root is the tenant root address the session is bound to.
	Root string

	// Authority overrides the token authority base URL (national clouds, tests).
	Authority string
}

// Validate checks that the descriptor carries what its class needs.
func (i Identity) Validate() error {
	if strings.TrimSpace(i.Root) == "" {
		return fmt.Errorf("%w: target root address is required", ErrConfiguration)
	}
	switch i.Class {
	case IdentityUser:
		if i.User == nil || i.User.Username == "" || i.User.Password == "" {
			return fmt.Errorf("%w: username and password are required", ErrConfiguration)
		}
		if i.User.ClientID == "" {
			return fmt.Errorf("%w: client id is required for user sessions", ErrConfiguration)
		}
	case IdentityApp:
		if i.App == nil || i.App.ClientID == "" || i.App.Tenant == "" ||
			i.App.Thumbprint == "" || i.App.CertificatePath == "" {
			return fmt.Errorf("%w: client id, tenant, thumbprint and certificate are required", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown identity class %q", ErrConfiguration, i.Class)
	}
	return nil
}
