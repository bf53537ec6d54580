package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/JohannesMeyerYC/quant-job-scraper/internal/scraper"
)

// Schema table layout in the config tree:
//
//	selectors:
//	  structured:
//	    "Hudson River Trading":
//	      card: "div.opening"
//	      title: "a"
//	      location: "span.location"
//	  browser:
//	    "Two Sigma":
//	      card: "div.role-card-container"
//	      title: "h3"
//	      location: "div.location-text"
//
// A title of "text" in a browser schema means "use the card's own text".

// LoadSchemas reads both per-firm selector tables from Viper. The tables are
// plain maps built once per run; nothing mutates them afterwards.
func LoadSchemas(v *viper.Viper) (structured, browser map[string]scraper.SelectorSchema, err error) {
	structured, err = loadSchemaTable(v, "selectors.structured")
	if err != nil {
		return nil, nil, err
	}
	browser, err = loadSchemaTable(v, "selectors.browser")
	if err != nil {
		return nil, nil, err
	}
	return structured, browser, nil
}

func loadSchemaTable(v *viper.Viper, key string) (map[string]scraper.SelectorSchema, error) {
	table := make(map[string]scraper.SelectorSchema)
	if !v.IsSet(key) {
		return table, nil
	}
	raw := make(map[string]scraper.SelectorSchema)
	if err := v.UnmarshalKey(key, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	for firm, schema := range raw {
		if schema.Card == "" || schema.Title == "" {
			return nil, fmt.Errorf("%s schema for %q needs card and title selectors", key, firm)
		}
		table[scraper.FirmKey(firm)] = schema
	}
	return table, nil
}
