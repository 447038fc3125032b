package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/linqiu/onebill/internal/match"
)

// MatchingConfig reads the engine tunables from viper, falling back to
// the engine defaults for unset keys.
func MatchingConfig() (match.Config, error) {
	cfg := match.DefaultConfig()

	if viper.IsSet("matching.max_day_diff") {
		cfg.MaxDayDiff = viper.GetInt("matching.max_day_diff")
	}
	if viper.IsSet("matching.fallback_day_diff") {
		cfg.FallbackDayDiff = viper.GetInt("matching.fallback_day_diff")
	}
	if viper.IsSet("matching.sum_tolerance") {
		d, err := decimal.NewFromString(viper.GetString("matching.sum_tolerance"))
		if err != nil {
			return cfg, fmt.Errorf("invalid matching.sum_tolerance: %w", err)
		}
		cfg.SumTolerance = d
	}
	if viper.IsSet("matching.fuzzy_tolerance") {
		d, err := decimal.NewFromString(viper.GetString("matching.fuzzy_tolerance"))
		if err != nil {
			return cfg, fmt.Errorf("invalid matching.fuzzy_tolerance: %w", err)
		}
		cfg.FuzzyTolerance = d
	}
	if viper.IsSet("matching.fuzzy_min_similarity") {
		cfg.FuzzyMinSimilarity = viper.GetInt("matching.fuzzy_min_similarity")
	}
	if viper.IsSet("matching.max_sum_candidates") {
		cfg.MaxSumCandidates = viper.GetInt("matching.max_sum_candidates")
	}
	if viper.IsSet("matching.max_sum_parts") {
		cfg.MaxSumParts = viper.GetInt("matching.max_sum_parts")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid matching configuration: %w", err)
	}
	return cfg, nil
}

// CardAliases reads the configured suffix alias map, e.g.
//
//	accounts:
//	  aliases:
//	    "4101": ["8846"]
//
// so a replaced card's new suffix still matches details recorded under
// the old one.
func CardAliases() map[string][]string {
	return viper.GetStringMapStringSlice("accounts.aliases")
}
