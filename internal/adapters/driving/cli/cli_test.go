package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
)

// fakeSites implements driving.SiteEnumerator.
type fakeSites struct {
	report *driving.EnumerateReport
	err    error
	output string
}

func (f *fakeSites) EnumerateSites(_ context.Context, output string) (*driving.EnumerateReport, error) {
	f.output = output
	return f.report, f.err
}

// fakeScanner implements driving.ContentScanner.
type fakeScanner struct {
	catalog []domain.NamedQuery
	query   *domain.Query
	output  string
	report  *driving.ScanReport
}

func (f *fakeScanner) ScanCatalog(_ context.Context, catalog []domain.NamedQuery, output string) (*driving.ScanReport, error) {
	f.catalog, f.output = catalog, output
	return f.report, nil
}

func (f *fakeScanner) ScanQuery(_ context.Context, query domain.Query, output string) (*driving.ScanReport, error) {
	f.query, f.output = &query, output
	return f.report, nil
}

// fakeProber implements driving.WriteProber.
type fakeProber struct {
	targets []domain.Target
	opts    driving.ProbeOptions
	report  *driving.ProbeReport
}

func (f *fakeProber) ProbeTargets(
	_ context.Context, targets []domain.Target, opts driving.ProbeOptions,
) (*driving.ProbeReport, error) {
	f.targets, f.opts = targets, opts
	return f.report, nil
}

// fakeDeployer implements driving.DecoyDeployer.
type fakeDeployer struct {
	called  bool
	targets []domain.Target
	opts    driving.DeployOptions
	report  *driving.DeployReport
}

func (f *fakeDeployer) DeployDecoys(
	_ context.Context, targets []domain.Target, opts driving.DeployOptions,
) (*driving.DeployReport, error) {
	f.called, f.targets, f.opts = true, targets, opts
	return f.report, nil
}

// testSettings returns defaults writing into a temp directory.
func testSettings(t *testing.T) *domain.Settings {
	t.Helper()
	settings := domain.DefaultSettings()
	settings.Identity.Root = "https://contoso.sharepoint.com"
	settings.Paths.OutputDir = t.TempDir()
	settings.Paths.AuditLog = ""
	return &settings
}

// useEngine makes every command run against e.
func useEngine(t *testing.T, e *engine) {
	t.Helper()
	old := bootstrap
	bootstrap = func(*cobra.Command) (*engine, error) { return e, nil }
	t.Cleanup(func() { bootstrap = old })
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
