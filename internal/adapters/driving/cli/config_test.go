package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwnpy/sharesentry/internal/adapters/driven/config/file"
	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/services"
)

// clearEnv hides credentials of the host from settings lookups.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		services.EnvUsername, services.EnvPassword, services.EnvClientID, services.EnvThumbprint,
		services.EnvTenant, services.EnvCertPath, services.EnvCertPass, services.EnvRoot,
		services.EnvAuthMethod, services.EnvOutputDir,
	} {
		t.Setenv(name, "")
	}
}

func TestConfigInit_WritesStarterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharesentry.toml")

	out, err := execute(t, "", "config", "init", "--config", path, "--root", "https://contoso.sharepoint.com/")

	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, "https://contoso.sharepoint.com", store.GetString("target.root"))
	assert.Equal(t, "user", store.GetString("auth.method"))
	assert.Equal(t, 100, store.GetInt("throttle.user_ms"))
	assert.Equal(t, domain.DefaultExtensions, store.GetStringSlice("search.extensions"))
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sharesentry.toml", "[auth]\nmethod = 'app'\n")

	_, err := execute(t, "", "config", "init", "--config", path)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = execute(t, "", "config", "init", "--config", path, "--force", "--auth", "app")
	require.NoError(t, err)
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, "app", store.GetString("auth.method"))
}

func TestConfigInit_RejectsUnknownAuth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharesentry.toml")

	_, err := execute(t, "", "config", "init", "--config", path, "--auth", "kerberos")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NoFileExists(t, path)
}

func TestConfigShow_MasksPassword(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "sharesentry.toml", `
[auth]
method = "user"
username = "alice@contoso.com"
password = "hunter2"

[target]
root = "https://contoso.sharepoint.com"
`)

	out, err := execute(t, "", "config", "show", "--config", path, "--workers", "4")

	require.NoError(t, err)
	assert.Contains(t, out, "username: alice@contoso.com")
	assert.Contains(t, out, "password: ********")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "root: https://contoso.sharepoint.com")
	assert.Contains(t, out, "workers: 4")
}

func TestConfigShow_RejectsZeroWorkers(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "sharesentry.toml", "")

	_, err := execute(t, "", "config", "show", "--config", path, "--workers", "0")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
