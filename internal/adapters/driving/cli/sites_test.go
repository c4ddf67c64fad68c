package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
)

func TestSitesCmd_WritesSummary(t *testing.T) {
	settings := testSettings(t)
	sites := &fakeSites{report: &driving.EnumerateReport{Sites: []string{"https://a", "https://b"}}}
	useEngine(t, &engine{settings: settings, sites: sites})

	out, err := execute(t, "", "sites")

	require.NoError(t, err)
	assert.Contains(t, out, "Total sites found: 2")
	assert.Equal(t, filepath.Join(settings.Paths.OutputDir, domain.SitesFile), sites.output)
}

func TestSitesCmd_TruncatesUnlessAppending(t *testing.T) {
	settings := testSettings(t)
	useEngine(t, &engine{settings: settings, sites: &fakeSites{report: &driving.EnumerateReport{}}})
	path := writeFile(t, settings.Paths.OutputDir, domain.SitesFile, "https://old\n")

	_, err := execute(t, "", "sites", "--append")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://old\n", string(data))

	_, err = execute(t, "", "sites")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSitesCmd_ReportsEarlyStop(t *testing.T) {
	useEngine(t, &engine{settings: testSettings(t), sites: &fakeSites{report: &driving.EnumerateReport{
		Sites: []string{"https://a"},
		Err:   domain.ErrTransport,
	}}})

	out, err := execute(t, "", "sites")

	require.NoError(t, err)
	assert.Contains(t, out, "search stopped early")
	assert.Contains(t, out, "Total sites found: 1")
}

func TestSitesCmd_FatalError(t *testing.T) {
	useEngine(t, &engine{settings: testSettings(t), sites: &fakeSites{err: errors.New("open session: boom")}})

	_, err := execute(t, "", "sites")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "site enumeration failed")
}

func TestSitesCmd_BootstrapError(t *testing.T) {
	old := bootstrap
	bootstrap = func(*cobra.Command) (*engine, error) { return nil, domain.ErrConfiguration }
	defer func() { bootstrap = old }()

	_, err := execute(t, "", "sites")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEngine_CloseRunsClosersInReverse(t *testing.T) {
	var order []int
	e := &engine{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("flush failed") },
	}}

	err := e.Close()

	assert.EqualError(t, err, "flush failed")
	assert.Equal(t, []int{2, 1}, order)
}
