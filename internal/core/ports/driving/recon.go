package driving

import (
	"context"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// SiteEnumerator discovers the collaboration spaces reachable by the session.
type SiteEnumerator interface {
	// EnumerateSites searches for sites and webs and appends every unique
	// address to output.
	EnumerateSites(ctx context.Context, output string) (*EnumerateReport, error)
}

// ContentScanner searches for sensitive content.
type ContentScanner interface {
	// ScanCatalog runs every named query and appends one titled section per query.
	ScanCatalog(ctx context.Context, catalog []domain.NamedQuery, output string) (*ScanReport, error)

	// ScanQuery runs one ad hoc query and appends a flat list of paths.
	ScanQuery(ctx context.Context, query domain.Query, output string) (*ScanReport, error)
}

// WriteProber classifies targets by write capability.
type WriteProber interface {
	// ProbeTargets probes every target, appending writable ones to
	// opts.WritableOutput as they are found.
	ProbeTargets(ctx context.Context, targets []domain.Target, opts ProbeOptions) (*ProbeReport, error)
}

// DecoyDeployer plants decoys into targets.
type DecoyDeployer interface {
	// DeployDecoys plants one decoy per target and appends confirmed
	// deployments to opts.DeployedOutput.
	DeployDecoys(ctx context.Context, targets []domain.Target, opts DeployOptions) (*DeployReport, error)
}

// ProbeOptions configures a write-probe run.
type ProbeOptions struct {
	WritableOutput string
	ResidualOutput string
}

// DeployOptions configures a deployment run.
type DeployOptions struct {
	DeployedOutput string
}

// TargetFailure is a recoverable per-target failure.
type TargetFailure struct {
	Target domain.Target
	Err    error
}

// EnumerateReport summarises a site enumeration.
type EnumerateReport struct {
	Sites []string

	// Err is the recoverable error that cut enumeration short, if any.
	Err error
}

// ScanReport summarises a content scan.
type ScanReport struct {
	// Queries is the number of queries executed.
	Queries int

	// Files is the number of unique paths written across all queries.
	Files int

	// Failures holds queries that stopped early; keyed by query title
	// (empty for ad hoc queries).
	Failures map[string]error
}

// ProbeReport summarises a write-probe run.
type ProbeReport struct {
	Total    int
	Writable []domain.Target

	// Undeletable lists targets left holding a probe document.
	Undeletable []domain.ProbeResult
	Failures    []TargetFailure
}

// DeployReport summarises a deployment run.
type DeployReport struct {
	Total    int
	Deployed []domain.DecoyRecord

	// Skipped counts targets skipped for an unrecognised template.
	Skipped  int
	Failures []TargetFailure
}
