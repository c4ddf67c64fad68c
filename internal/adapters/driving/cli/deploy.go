package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	storage "github.com/pwnpy/sharesentry/internal/adapters/driven/storage/file"
	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
)

var (
	deployTargets string
	deployOutput  string
	deployYes     bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Plant decoy documents into writable sites",
	Long: `Uploads one decoy per target site. The decoy is a random template from
paths.templates renamed from the matching wordlist, with its author set to
the site owner and its created and modified dates set in the past.

Rewriting Author, Editor, Created and Modified needs owner-level rights on
the site. Decoys whose metadata was rejected stay on the site but are not
recorded in the deployed file.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	flags := deployCmd.Flags()
	flags.StringVarP(&deployTargets, "targets", "t", "", "target list (default <output-dir>/"+domain.WritableFile+")")
	flags.StringVar(&deployOutput, "output", "", "deployed decoys file (default <output-dir>/"+domain.DeployedFile+")")
	flags.BoolVarP(&deployYes, "yes", "y", false, "deploy without asking for confirmation")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, _ []string) (err error) {
	e, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, e) }()

	paths := e.settings.Paths
	targets, err := storage.ReadTargets(orDefault(deployTargets, paths.Output(domain.WritableFile)))
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		cmd.Println(warning("No targets to deploy to."))
		return nil
	}

	cmd.Println(warning("Changing document metadata requires site owner or higher privileges."))
	if !deployYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("Deploy decoys to %d sites?", len(targets)))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Deployment cancelled.")
			return nil
		}
	}

	deployer, err := e.deployer()
	if err != nil {
		return err
	}
	opts := driving.DeployOptions{DeployedOutput: orDefault(deployOutput, paths.Output(domain.DeployedFile))}

	cmd.Println(title(fmt.Sprintf("Deploying decoys to %d sites", len(targets))))
	report, err := deployer.DeployDecoys(cmd.Context(), targets, opts)
	if report != nil {
		printDeployReport(cmd, report, opts)
	}
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}
	return nil
}

func printDeployReport(cmd *cobra.Command, report *driving.DeployReport, opts driving.DeployOptions) {
	for _, d := range report.Deployed {
		cmd.Println(success(fmt.Sprintf("Deployed %s (author %s, created %s)",
			d.Line(), d.Author.Title, d.CreatedAt.Format("2006-01-02"))))
	}
	for _, f := range report.Failures {
		cmd.Println(failure(fmt.Sprintf("%s: %v", f.Target, f.Err)))
	}
	if report.Skipped > 0 {
		cmd.Println(warning(fmt.Sprintf("%d sites skipped: template type not recognised", report.Skipped)))
	}
	cmd.Println(success(fmt.Sprintf("Deployed %d decoys out of %d sites", len(report.Deployed), report.Total)))
	cmd.Println(muted("Written to " + opts.DeployedOutput))
}
