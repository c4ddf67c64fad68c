package sharepoint

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/pkcs12"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// DefaultAuthority is the public cloud token authority.
const DefaultAuthority = "https://login.microsoftonline.com"

const (
	assertionType     = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	assertionLifetime = 10 * time.Minute
	defaultTenant     = "organizations"
)

// tokenURL returns the v2 token endpoint for a tenant.
func tokenURL(authority, tenant string) string {
	if authority == "" {
		authority = DefaultAuthority
	}
	if tenant == "" {
		tenant = defaultTenant
	}
	return strings.TrimRight(authority, "/") + "/" + url.PathEscape(tenant) + "/oauth2/v2.0/token"
}

// resourceScope returns the .default scope for the host serving target.
func resourceScope(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: target %q is not an absolute URL", domain.ErrInvalidInput, target)
	}
	return u.Scheme + "://" + u.Host + "/.default", nil
}

// passwordSource runs the resource owner password grant on every call.
// Wrap it in oauth2.ReuseTokenSource.
type passwordSource struct {
	ctx      context.Context
	config   *oauth2.Config
	username string
	password string
}

func newPasswordSource(ctx context.Context, cred *domain.UserCredential, authority, scope string) oauth2.TokenSource {
	return &passwordSource{
		ctx: ctx,
		config: &oauth2.Config{
			ClientID: cred.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL(authority, cred.Tenant),
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{scope},
		},
		username: cred.Username,
		password: cred.Password,
	}
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	token, err := s.config.PasswordCredentialsToken(s.ctx, s.username, s.password)
	if err != nil {
		return nil, fmt.Errorf("password grant for %s: %w", s.username, err)
	}
	return token, nil
}

// certificateSource runs the client credentials grant with a freshly
// signed assertion on every call. Wrap it in oauth2.ReuseTokenSource.
type certificateSource struct {
	ctx      context.Context
	clientID string
	tokenURL string
	scope    string
	signer   *assertionSigner
}

func newCertificateSource(
	ctx context.Context, cred *domain.CertificateCredential, signer *assertionSigner, authority, scope string,
) oauth2.TokenSource {
	return &certificateSource{
		ctx:      ctx,
		clientID: cred.ClientID,
		tokenURL: tokenURL(authority, cred.Tenant),
		scope:    scope,
		signer:   signer,
	}
}

func (s *certificateSource) Token() (*oauth2.Token, error) {
	assertion, err := s.signer.sign(s.clientID, s.tokenURL, time.Now())
	if err != nil {
		return nil, err
	}
	config := clientcredentials.Config{
		ClientID:  s.clientID,
		TokenURL:  s.tokenURL,
		Scopes:    []string{s.scope},
		AuthStyle: oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"client_assertion_type": {assertionType},
			"client_assertion":      {assertion},
		},
	}
	token, err := config.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials grant for %s: %w", s.clientID, err)
	}
	return token, nil
}

// loadSigner reads the certificate key named by cred.
func loadSigner(cred *domain.CertificateCredential) (*assertionSigner, error) {
	key, err := loadPrivateKey(cred.CertificatePath, cred.Password)
	if err != nil {
		return nil, err
	}
	return newAssertionSigner(key, cred.Thumbprint)
}

// assertionSigner builds RS256 client assertions.
type assertionSigner struct {
	key *rsa.PrivateKey
	x5t string
}

func newAssertionSigner(key *rsa.PrivateKey, thumbprint string) (*assertionSigner, error) {
	raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(thumbprint), ":", ""))
	if err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("%w: certificate thumbprint must be hex", domain.ErrConfiguration)
	}
	return &assertionSigner{key: key, x5t: base64.RawURLEncoding.EncodeToString(raw)}, nil
}

func (s *assertionSigner) sign(clientID, audience string, now time.Time) (string, error) {
	// The token endpoint expects a single-valued aud.
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"aud": audience,
		"iss": clientID,
		"sub": clientID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	})
	token.Header["x5t"] = s.x5t

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}
	return signed, nil
}

// loadPrivateKey reads an RSA key from a PEM file or a PKCS#12 bundle.
func loadPrivateKey(path, password string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read certificate: %w", domain.ErrConfiguration, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfx", ".p12":
		key, _, err := pkcs12.Decode(data, password)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrConfiguration, path, err)
		}
		return asRSA(key)
	}

	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no private key in %s", domain.ErrConfiguration, path)
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: parse key: %w", domain.ErrConfiguration, err)
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: parse key: %w", domain.ErrConfiguration, err)
			}
			return asRSA(key)
		}
	}
}

func asRSA(key any) (*rsa.PrivateKey, error) {
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate key is not RSA", domain.ErrConfiguration)
	}
	return rsaKey, nil
}

// withHTTPClient makes oauth2 token requests use client.
func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
