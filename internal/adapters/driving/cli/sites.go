package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	storage "github.com/pwnpy/sharesentry/internal/adapters/driven/storage/file"
	"github.com/pwnpy/sharesentry/internal/core/domain"
)

var (
	sitesOutput string
	sitesAppend bool
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Enumerate reachable sites",
	Long: `Searches for every site collection and sub-site the identity can see
and writes their addresses, one per line, to the sites file.`,
	Args: cobra.NoArgs,
	RunE: runSites,
}

func init() {
	sitesCmd.Flags().StringVar(&sitesOutput, "output", "", "sites file (default <output-dir>/"+domain.SitesFile+")")
	sitesCmd.Flags().BoolVar(&sitesAppend, "append", false, "append to the sites file instead of replacing it")
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, _ []string) (err error) {
	e, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, e) }()

	output := sitesOutput
	if output == "" {
		output = e.settings.Paths.Output(domain.SitesFile)
	}
	if !sitesAppend {
		if err := storage.Truncate(output); err != nil {
			return err
		}
	}

	cmd.Println(title("Enumerating sites from " + e.settings.Identity.Root))
	report, err := e.sites.EnumerateSites(cmd.Context(), output)
	if err != nil {
		return fmt.Errorf("site enumeration failed: %w", err)
	}

	if report.Err != nil {
		cmd.Println(warning(fmt.Sprintf("search stopped early: %v", report.Err)))
	}
	cmd.Println(success(fmt.Sprintf("Total sites found: %d", len(report.Sites))))
	cmd.Println(muted("Written to " + output))
	return nil
}

// joinClose closes e and folds its error into err.
func joinClose(err error, e *engine) error {
	return errors.Join(err, e.Close())
}
