package scraper

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences a scrape run. All values
// originate from Viper so the scraper can be configured via files, env vars,
// or CLI flags.
type Config struct {
	RequestTimeout time.Duration
	DomainRPS      float64
	DelayMin       time.Duration
	DelayMax       time.Duration
	Browser        BrowserConfig
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		RequestTimeout: v.GetDuration("scraper.request_timeout"),
		DomainRPS:      v.GetFloat64("scraper.domain_rps"),
		DelayMin:       v.GetDuration("scraper.delay_min"),
		DelayMax:       v.GetDuration("scraper.delay_max"),
		Browser: BrowserConfig{
			UserAgent:         v.GetString("scraper.browser.user_agent"),
			NavigationTimeout: v.GetDuration("scraper.browser.navigation_timeout"),
			SelectorTimeout:   v.GetDuration("scraper.browser.selector_timeout"),
			CardTimeout:       v.GetDuration("scraper.browser.card_timeout"),
			Concurrency:       v.GetInt("scraper.browser.concurrency"),
			WindowWidth:       v.GetInt("scraper.browser.window_width"),
			WindowHeight:      v.GetInt("scraper.browser.window_height"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("scraper.request_timeout must be > 0")
	}
	if c.DomainRPS < 0 {
		return fmt.Errorf("scraper.domain_rps must be >= 0")
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return fmt.Errorf("scraper delay range must satisfy 0 <= min <= max")
	}
	// Zero means "use the built-in default"; only negatives and values past
	// the cap are rejected.
	if c.Browser.NavigationTimeout < 0 || c.Browser.NavigationTimeout > 30*time.Second {
		return fmt.Errorf("scraper.browser.navigation_timeout must be between 0 and 30s")
	}
	if c.Browser.SelectorTimeout < 0 {
		return fmt.Errorf("scraper.browser.selector_timeout must be >= 0")
	}
	if c.Browser.Concurrency < 0 {
		return fmt.Errorf("scraper.browser.concurrency must be >= 0")
	}
	return nil
}
