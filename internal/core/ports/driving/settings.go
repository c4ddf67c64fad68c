package driving

import "github.com/pwnpy/sharesentry/internal/core/domain"

// SettingsService resolves runtime settings from the configuration file and
// the environment.
type SettingsService interface {
	// Get returns validated settings.
	Get() (*domain.Settings, error)
}
