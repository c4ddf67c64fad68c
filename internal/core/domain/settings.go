package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// Page size bounds accepted by the platform search endpoint.
const (
	DefaultPageSize = 500
	MaxPageSize     = 1000
)

// ClampPageSize returns a usable page size: non-positive values fall back to
// DefaultPageSize and values above MaxPageSize are capped.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}

// NetworkSettings configures the REST transport.
type NetworkSettings struct {
	// InsecureSkipVerify disables TLS certificate validation for lab targets.
	InsecureSkipVerify bool

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxRetries bounds transport retries per request.
	MaxRetries int
}

// SearchSettings configures content scans.
type SearchSettings struct {
	PageSize   int
	Extensions []string

	// Modified is the raw last-modified expression (see ParseModifiedFilter).
	Modified string
}

// PathSettings locates inputs and outputs on disk.
type PathSettings struct {
	OutputDir string
	Templates string
	Wordlists string
	Queries   string
	Keywords  string
	AuditLog  string

	// Metrics is an optional Prometheus textfile written at the end of a run.
	Metrics string
}

// Output file names inside OutputDir.
const (
	SitesFile     = "all_sites_new.txt"
	WritableFile  = "writable_spaces.txt"
	ResidualFile  = "failed_to_delete.txt"
	SearchFile    = "output_search.txt"
	DeployedFile  = "deployed_tokens.txt"
	DefaultConfig = "sharesentry.toml"
)

// Output returns the path of a file in the output directory.
func (p PathSettings) Output(name string) string {
	return filepath.Join(p.OutputDir, name)
}

// Settings is the full runtime configuration.
type Settings struct {
	Identity Identity
	Network  NetworkSettings
	Throttle ThrottlePolicy
	Search   SearchSettings
	Paths    PathSettings

	// Workers is the number of targets processed concurrently.
	Workers int
}

// DefaultSettings returns the configuration used when nothing is set.
func DefaultSettings() Settings {
	return Settings{
		Identity: Identity{
			Class: IdentityUser,
		},
		Network: NetworkSettings{
			InsecureSkipVerify: false,
			Timeout:            30 * time.Second,
			MaxRetries:         3,
		},
		Throttle: DefaultThrottlePolicy(),
		Search: SearchSettings{
			PageSize:   DefaultPageSize,
			Extensions: append([]string(nil), DefaultExtensions...),
			Modified:   ThisYear,
		},
		Paths: PathSettings{
			OutputDir: "output",
			Templates: "templates",
			Wordlists: "wordlists",
			Queries:   "queries.md",
			Keywords:  "keywords.txt",
			AuditLog:  filepath.Join("logs", "Audit.log"),
		},
		Workers: 1,
	}
}

// Validate checks settings that do not depend on the command being run.
// Identity is validated separately because not every command needs it.
func (s Settings) Validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrConfiguration)
	}
	if s.Network.Timeout <= 0 {
		return fmt.Errorf("%w: network timeout must be positive", ErrConfiguration)
	}
	if s.Network.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must not be negative", ErrConfiguration)
	}
	for class, d := range s.Throttle {
		if d < 0 {
			return fmt.Errorf("%w: throttle interval for %s must not be negative", ErrConfiguration, class)
		}
	}
	if s.Paths.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrConfiguration)
	}
	return nil
}
