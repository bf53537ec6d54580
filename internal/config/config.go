// Package config initializes the application's configuration and loads the
// firm roster and selector schema tables.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Init initializes the application's configuration using Viper: defaults,
// config file search paths, and environment variables. Call once at startup.
func Init() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/jobscraper/")
	viper.AddConfigPath("$HOME/.jobscraper")

	viper.SetDefault("firms_file", "firms.csv")
	viper.SetDefault("output.csv", "output/jobs.csv")
	viper.SetDefault("output.json", "")
	viper.SetDefault("logging.development", false)
	viper.SetDefault("ops.addr", "")

	viper.SetDefault("scraper.request_timeout", "20s")
	viper.SetDefault("scraper.domain_rps", 1.0)
	viper.SetDefault("scraper.delay_min", "3s")
	viper.SetDefault("scraper.delay_max", "7s")

	viper.SetDefault("scraper.browser.navigation_timeout", "20s")
	viper.SetDefault("scraper.browser.selector_timeout", "15s")
	viper.SetDefault("scraper.browser.card_timeout", "5s")
	viper.SetDefault("scraper.browser.concurrency", 1)
	viper.SetDefault("scraper.browser.window_width", 1920)
	viper.SetDefault("scraper.browser.window_height", 1080)

	viper.SetEnvPrefix("JOBSCRAPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and env vars carry the run.
	_ = viper.ReadInConfig()
}
