package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pwnpy/sharesentry/internal/adapters/driven/config/file"
	"github.com/pwnpy/sharesentry/internal/core/domain"
)

var (
	initRoot   string
	initMethod string
	initForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Writes a configuration file with the default paths, throttle and network
settings. Credentials are left empty; set them in the file or through the
environment.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().StringVar(&initRoot, "root", "", "tenant root site, e.g. https://contoso.sharepoint.com")
	configInitCmd.Flags().StringVar(&initMethod, "auth", "user", "identity class: user or app")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	class, err := domain.ParseIdentityClass(initMethod)
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		if !initForce {
			return fmt.Errorf("%w: %s already exists (use --force to overwrite)", domain.ErrConfiguration, configPath)
		}
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("remove %s: %w", configPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", configPath, err)
	}

	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return err
	}

	defaults := domain.DefaultSettings()
	values := []struct {
		key   string
		value any
	}{
		{"auth.method", class.String()},
		{"target.root", strings.TrimRight(initRoot, "/")},
		{"network.insecure_skip_verify", defaults.Network.InsecureSkipVerify},
		{"network.timeout_seconds", int(defaults.Network.Timeout.Seconds())},
		{"network.max_retries", defaults.Network.MaxRetries},
		{"throttle.user_ms", defaults.Throttle[domain.IdentityUser].Milliseconds()},
		{"throttle.app_ms", defaults.Throttle[domain.IdentityApp].Milliseconds()},
		{"search.page_size", defaults.Search.PageSize},
		{"search.extensions", defaults.Search.Extensions},
		{"search.modified", defaults.Search.Modified},
		{"paths.output_dir", defaults.Paths.OutputDir},
		{"paths.templates", defaults.Paths.Templates},
		{"paths.wordlists", defaults.Paths.Wordlists},
		{"paths.queries", defaults.Paths.Queries},
		{"paths.keywords", defaults.Paths.Keywords},
		{"paths.audit_log", defaults.Paths.AuditLog},
		{"run.workers", defaults.Workers},
	}
	for _, v := range values {
		if err := store.Set(v.key, v.value); err != nil {
			return err
		}
	}

	cmd.Println(success("Wrote " + store.Path()))
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	id := settings.Identity
	cmd.Println(title("[auth]"))
	cmd.Printf("  method: %s\n", id.Class)
	cmd.Printf("  root: %s\n", valueOrUnset(id.Root))
	switch {
	case id.User != nil:
		cmd.Printf("  username: %s\n", valueOrUnset(id.User.Username))
		cmd.Printf("  password: %s\n", maskSecret(id.User.Password))
		cmd.Printf("  client id: %s\n", valueOrUnset(id.User.ClientID))
		cmd.Printf("  tenant: %s\n", valueOrUnset(id.User.Tenant))
	case id.App != nil:
		cmd.Printf("  client id: %s\n", valueOrUnset(id.App.ClientID))
		cmd.Printf("  tenant: %s\n", valueOrUnset(id.App.Tenant))
		cmd.Printf("  thumbprint: %s\n", valueOrUnset(id.App.Thumbprint))
		cmd.Printf("  certificate: %s\n", valueOrUnset(id.App.CertificatePath))
	}

	cmd.Println(title("[network]"))
	cmd.Printf("  insecure: %t\n", settings.Network.InsecureSkipVerify)
	cmd.Printf("  timeout: %s\n", settings.Network.Timeout)
	cmd.Printf("  max retries: %d\n", settings.Network.MaxRetries)
	cmd.Printf("  throttle: user %s, app %s\n",
		settings.Throttle[domain.IdentityUser], settings.Throttle[domain.IdentityApp])

	cmd.Println(title("[search]"))
	cmd.Printf("  page size: %d\n", settings.Search.PageSize)
	cmd.Printf("  extensions: %s\n", strings.Join(settings.Search.Extensions, ","))
	cmd.Printf("  modified: %s\n", valueOrUnset(settings.Search.Modified))

	cmd.Println(title("[paths]"))
	cmd.Printf("  output: %s\n", settings.Paths.OutputDir)
	cmd.Printf("  templates: %s\n", settings.Paths.Templates)
	cmd.Printf("  wordlists: %s\n", settings.Paths.Wordlists)
	cmd.Printf("  queries: %s\n", settings.Paths.Queries)
	cmd.Printf("  audit log: %s\n", valueOrUnset(settings.Paths.AuditLog))
	cmd.Printf("  metrics: %s\n", valueOrUnset(settings.Paths.Metrics))
	cmd.Printf("  workers: %d\n", settings.Workers)
	return nil
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskSecret replaces a set secret with a fixed mask.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return strings.Repeat("*", 8)
}
