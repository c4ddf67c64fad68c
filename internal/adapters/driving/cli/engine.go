package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pwnpy/sharesentry/internal/adapters/driven/catalog"
	"github.com/pwnpy/sharesentry/internal/adapters/driven/config/file"
	"github.com/pwnpy/sharesentry/internal/adapters/driven/metrics"
	storage "github.com/pwnpy/sharesentry/internal/adapters/driven/storage/file"
	"github.com/pwnpy/sharesentry/internal/connectors/sharepoint"
	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
	"github.com/pwnpy/sharesentry/internal/core/services"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// engine is the wiring for one command invocation.
type engine struct {
	settings *domain.Settings
	runID    string

	sites   driving.SiteEnumerator
	scanner driving.ContentScanner
	prober  driving.WriteProber

	// deployer is built on demand because it loads templates and wordlists.
	deployer func() (driving.DecoyDeployer, error)

	closers []func() error
}

// Close flushes metrics and closes the audit log.
func (e *engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// bootstrap builds the engine. Tests replace it.
var bootstrap = buildEngine

// loadSettings is the settings source. Tests replace it.
var loadSettings = settingsFromFlags

// settingsFromFlags reads the configuration file and the environment, then
// applies persistent flag overrides.
func settingsFromFlags(cmd *cobra.Command) (*domain.Settings, error) {
	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, err
	}
	settings, err := services.NewSettingsService(store).Get()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("insecure") {
		settings.Network.InsecureSkipVerify = insecure
	}
	if flags.Changed("workers") {
		if workers < 1 {
			return nil, fmt.Errorf("%w: --workers must be at least 1", domain.ErrConfiguration)
		}
		settings.Workers = workers
	}
	if flags.Changed("output-dir") {
		settings.Paths.OutputDir = outputDir
	}
	return settings, nil
}

func buildEngine(cmd *cobra.Command) (*engine, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	e := &engine{settings: settings, runID: uuid.NewString()}
	if err := e.openAudit(); err != nil {
		return nil, err
	}

	if err := completeIdentity(cmd, &settings.Identity); err != nil {
		_ = e.Close()
		return nil, err
	}
	if err := settings.Identity.Validate(); err != nil {
		_ = e.Close()
		return nil, err
	}
	logger.Info("run %s as %s identity against %s", e.runID, settings.Identity.Class, settings.Identity.Root)

	recorder := metrics.New(e.runID)
	if settings.Paths.Metrics != "" {
		path := settings.Paths.Metrics
		e.closers = append(e.closers, func() error { return recorder.WriteTextfile(path) })
	}

	factory, err := sharepoint.NewFactory(settings.Identity, settings.Network, recorder)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	throttle := services.NewThrottleForClass(settings.Throttle, factory.IdentityClass(), nil)
	searcher := services.NewSearcher(throttle, settings.Search.PageSize, recorder)
	sink := storage.NewResultSink()
	root := domain.Target(settings.Identity.Root)

	e.sites = services.NewSiteEnumerator(factory, root, searcher, sink)
	e.scanner = services.NewContentScanner(factory, root, searcher, sink)
	e.prober = services.NewWriteProber(services.NewProber(factory, throttle, recorder), sink, settings.Workers)
	e.deployer = func() (driving.DecoyDeployer, error) {
		index, err := catalog.LoadWordlistIndex(settings.Paths.Wordlists)
		if err != nil {
			return nil, err
		}
		return services.NewDecoyDeployer(
			factory,
			catalog.NewTemplateStore(settings.Paths.Templates),
			index,
			services.NewSynthesizer(nil, nil),
			sink,
			throttle,
			recorder,
			settings.Workers,
		), nil
	}
	return e, nil
}

// openAudit starts appending every log line to the audit file.
func (e *engine) openAudit() error {
	path := e.settings.Paths.AuditLog
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	logger.SetAudit(f)
	e.closers = append(e.closers, func() error {
		logger.SetAudit(nil)
		return f.Close()
	})
	return nil
}
