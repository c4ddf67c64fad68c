package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyAuthMethod      = "auth.method"
	keyAuthUsername    = "auth.username"
	keyAuthPassword    = "auth.password"
	keyAuthTenant      = "auth.tenant"
	keyAuthClientID    = "auth.client_id"
	keyAuthCertificate = "auth.certificate"
	keyAuthThumbprint  = "auth.thumbprint"
	keyAuthCertPass    = "auth.certificate_password"
	keyAuthAuthority   = "auth.authority"
	keyTargetRoot      = "target.root"
	keyInsecure        = "network.insecure_skip_verify"
	keyTimeout         = "network.timeout_seconds"
	keyMaxRetries      = "network.max_retries"
	keyThrottleUser    = "throttle.user_ms"
	keyThrottleApp     = "throttle.app_ms"
	keyPageSize        = "search.page_size"
	keyExtensions      = "search.extensions"
	keyModified        = "search.modified"
	keyOutputDir       = "paths.output_dir"
	keyTemplates       = "paths.templates"
	keyWordlists       = "paths.wordlists"
	keyQueries         = "paths.queries"
	keyKeywords        = "paths.keywords"
	keyAuditLog        = "paths.audit_log"
	keyMetrics         = "paths.metrics"
	keyWorkers         = "run.workers"
)

// Environment variables that override the configuration file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvUsername   = "SHAREPOINT_USERNAME"
	EnvPassword   = "SHAREPOINT_PASSWORD"
	EnvClientID   = "AZURE_CLIENT_ID"
	EnvThumbprint = "AZURE_THUMBPRINT"
	EnvTenant     = "AZURE_TENANT"
	EnvCertPath   = "AZURE_CERT_PATH"
	EnvCertPass   = "AZURE_CERT_PASSWORD"
	EnvRoot       = "SHARESENTRY_ROOT"
	EnvAuthMethod = "SHARESENTRY_AUTH_METHOD"
	EnvOutputDir  = "SHARESENTRY_OUTPUT_DIR"
)

// SettingsService assembles run settings from the configuration store and
// the environment. Environment values win over the file.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a settings service reading the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore, getenv: os.Getenv}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(getenv func(string) string) *SettingsService {
	s.getenv = getenv
	return s
}

// Get returns the effective settings. Credentials are not validated here;
// callers validate the identity once interactive prompts had their chance.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	class, err := domain.ParseIdentityClass(s.lookup(EnvAuthMethod, keyAuthMethod, settings.Identity.Class.String()))
	if err != nil {
		return nil, err
	}
	settings.Identity = domain.Identity{
		Class:     class,
		Root:      strings.TrimRight(s.lookup(EnvRoot, keyTargetRoot, ""), "/"),
		Authority: s.getString(keyAuthAuthority, ""),
	}
	clientID := s.lookup(EnvClientID, keyAuthClientID, "")
	tenant := s.lookup(EnvTenant, keyAuthTenant, "")
	switch class {
	case domain.IdentityUser:
		settings.Identity.User = &domain.UserCredential{
			Username: s.lookup(EnvUsername, keyAuthUsername, ""),
			Password: s.lookup(EnvPassword, keyAuthPassword, ""),
			Tenant:   tenant,
			ClientID: clientID,
		}
	case domain.IdentityApp:
		settings.Identity.App = &domain.CertificateCredential{
			ClientID:        clientID,
			Tenant:          tenant,
			Thumbprint:      s.lookup(EnvThumbprint, keyAuthThumbprint, ""),
			CertificatePath: s.lookup(EnvCertPath, keyAuthCertificate, ""),
			Password:        s.lookup(EnvCertPass, keyAuthCertPass, ""),
		}
	}

	settings.Network.InsecureSkipVerify = s.getBool(keyInsecure, settings.Network.InsecureSkipVerify)
	settings.Network.Timeout = time.Duration(s.getInt(keyTimeout, int(settings.Network.Timeout/time.Second))) * time.Second
	settings.Network.MaxRetries = s.getInt(keyMaxRetries, settings.Network.MaxRetries)

	settings.Throttle[domain.IdentityUser] = s.getMillis(keyThrottleUser, settings.Throttle[domain.IdentityUser])
	settings.Throttle[domain.IdentityApp] = s.getMillis(keyThrottleApp, settings.Throttle[domain.IdentityApp])

	settings.Search.PageSize = domain.ClampPageSize(s.getInt(keyPageSize, settings.Search.PageSize))
	if exts := s.configStore.GetStringSlice(keyExtensions); len(exts) > 0 {
		settings.Search.Extensions = exts
	}
	settings.Search.Modified = s.getString(keyModified, settings.Search.Modified)

	settings.Paths = domain.PathSettings{
		OutputDir: s.lookup(EnvOutputDir, keyOutputDir, settings.Paths.OutputDir),
		Templates: s.getString(keyTemplates, settings.Paths.Templates),
		Wordlists: s.getString(keyWordlists, settings.Paths.Wordlists),
		Queries:   s.getString(keyQueries, settings.Paths.Queries),
		Keywords:  s.getString(keyKeywords, settings.Paths.Keywords),
		AuditLog:  s.getString(keyAuditLog, settings.Paths.AuditLog),
		Metrics:   s.getString(keyMetrics, settings.Paths.Metrics),
	}
	settings.Workers = s.getInt(keyWorkers, settings.Workers)

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings from %s: %w", s.configStore.Path(), err)
	}
	return &settings, nil
}

// lookup prefers the environment variable, then the config key, then defaultVal.
func (s *SettingsService) lookup(env, key, defaultVal string) string {
	if v := strings.TrimSpace(s.getenv(env)); v != "" {
		return v
	}
	return s.getString(key, defaultVal)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Millisecond
}
