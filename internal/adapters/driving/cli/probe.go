package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	storage "github.com/pwnpy/sharesentry/internal/adapters/driven/storage/file"
	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
)

var (
	probeTargets  string
	probeWritable string
	probeResidual string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Find sites the identity can write to",
	Long: `Creates and deletes a blank document in the default library of every
target site. Sites where both steps succeed are appended to the writable
spaces file. Probe documents that could not be removed are recorded in the
residual file as "<site>: <document>" for manual cleanup.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	flags := probeCmd.Flags()
	flags.StringVarP(&probeTargets, "targets", "t", "", "target list (default <output-dir>/"+domain.SitesFile+")")
	flags.StringVar(&probeWritable, "output", "", "writable spaces file (default <output-dir>/"+domain.WritableFile+")")
	flags.StringVar(&probeResidual, "residual", "", "residual probe file (default <output-dir>/"+domain.ResidualFile+")")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, _ []string) (err error) {
	e, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, e) }()

	paths := e.settings.Paths
	targets, err := storage.ReadTargets(orDefault(probeTargets, paths.Output(domain.SitesFile)))
	if err != nil {
		return err
	}
	opts := driving.ProbeOptions{
		WritableOutput: orDefault(probeWritable, paths.Output(domain.WritableFile)),
		ResidualOutput: orDefault(probeResidual, paths.Output(domain.ResidualFile)),
	}

	cmd.Println(title(fmt.Sprintf("Probing %d sites for write access", len(targets))))
	report, err := e.prober.ProbeTargets(cmd.Context(), targets, opts)
	if report != nil {
		printProbeReport(cmd, report, opts)
	}
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	return nil
}

func printProbeReport(cmd *cobra.Command, report *driving.ProbeReport, opts driving.ProbeOptions) {
	for _, t := range report.Writable {
		cmd.Println(success("Writable: " + t.String()))
	}
	for _, r := range report.Undeletable {
		cmd.Println(warning("Probe left behind: " + r.ResidualLine()))
	}
	for _, f := range report.Failures {
		cmd.Println(failure(fmt.Sprintf("%s: %v", f.Target, f.Err)))
	}
	cmd.Println(success(fmt.Sprintf("Found %d writable spaces out of %d sites", len(report.Writable), report.Total)))
	if len(report.Undeletable) > 0 {
		cmd.Println(warning(fmt.Sprintf("%d probe documents need manual cleanup, see %s",
			len(report.Undeletable), opts.ResidualOutput)))
	}
	cmd.Println(muted("Written to " + opts.WritableOutput))
}

// orDefault returns value unless it is empty.
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
