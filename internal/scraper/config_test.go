package scraper

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func configFixture() *viper.Viper {
	v := viper.New()
	v.Set("scraper.request_timeout", "20s")
	v.Set("scraper.domain_rps", 1.0)
	v.Set("scraper.delay_min", "3s")
	v.Set("scraper.delay_max", "7s")
	v.Set("scraper.browser.navigation_timeout", "20s")
	v.Set("scraper.browser.selector_timeout", "15s")
	v.Set("scraper.browser.concurrency", 1)
	return v
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(configFixture())
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, cfg.RequestTimeout)
	require.Equal(t, 1.0, cfg.DomainRPS)
	require.Equal(t, 3*time.Second, cfg.DelayMin)
	require.Equal(t, 7*time.Second, cfg.DelayMax)
	require.Equal(t, 20*time.Second, cfg.Browser.NavigationTimeout)
	require.Equal(t, 1, cfg.Browser.Concurrency)
}

func TestLoadConfigRejectsMissingTimeout(t *testing.T) {
	t.Parallel()

	v := configFixture()
	v.Set("scraper.request_timeout", "0s")
	_, err := LoadConfig(v)
	require.Error(t, err)
}

func TestValidateRejectsInvertedDelayRange(t *testing.T) {
	t.Parallel()

	v := configFixture()
	v.Set("scraper.delay_min", "10s")
	v.Set("scraper.delay_max", "2s")
	_, err := LoadConfig(v)
	require.Error(t, err)
}

func TestValidateCapsNavigationTimeout(t *testing.T) {
	t.Parallel()

	v := configFixture()
	v.Set("scraper.browser.navigation_timeout", "45s")
	_, err := LoadConfig(v)
	require.Error(t, err)
	require.Contains(t, err.Error(), "navigation_timeout")
}

func TestValidateAllowsZeroNavigationTimeout(t *testing.T) {
	t.Parallel()

	// Zero is the "take the default" value filled in by the browser config.
	v := configFixture()
	v.Set("scraper.browser.navigation_timeout", "0s")
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	require.Zero(t, cfg.Browser.NavigationTimeout)

	v.Set("scraper.browser.navigation_timeout", "-1s")
	_, err = LoadConfig(v)
	require.Error(t, err)
}
