// Package cli implements the sharesentry command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	configPath string
	verbose    bool
	insecure   bool
	workers    int
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "sharesentry",
	Short: "SharePoint reconnaissance and deception toolkit",
	Long: `ShareSentry enumerates SharePoint sites, searches them for sensitive
content, finds sites the current identity can write to and plants decoy
documents with forged provenance into them.

Credentials come from sharesentry.toml or the environment
(SHAREPOINT_USERNAME, SHAREPOINT_PASSWORD, AZURE_CLIENT_ID, AZURE_TENANT,
AZURE_THUMBPRINT, AZURE_CERT_PATH).`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", domain.DefaultConfig, "configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	flags.BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	flags.IntVarP(&workers, "workers", "w", 0, "targets processed concurrently (overrides run.workers)")
	flags.StringVarP(&outputDir, "output-dir", "o", "", "directory for result files (overrides paths.output_dir)")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
