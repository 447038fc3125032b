// Package match implements the reconciliation core: candidate
// selection, the exact/sum/fuzzy/dup-reuse match pipeline, and
// confidence scoring.
package match

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the engine tunables. Values are plain data so a Config
// can be loaded from viper keys or constructed directly in tests.
type Config struct {
	// MaxDayDiff is the primary date window, in days, between a bill
	// line's base date and a candidate detail record.
	MaxDayDiff int
	// FallbackDayDiff is the wider window tried when the primary one
	// yields nothing. Capped at 7.
	FallbackDayDiff int
	// SumTolerance is the absolute amount tolerance for combinatorial
	// sum matches.
	SumTolerance decimal.Decimal
	// FuzzyTolerance is the looser absolute amount tolerance for
	// single-record fuzzy matches.
	FuzzyTolerance decimal.Decimal
	// FuzzyMinSimilarity is the text similarity floor (0-100) a fuzzy
	// candidate must clear.
	FuzzyMinSimilarity int
	// MaxSumCandidates bounds the combinatorial search: when more
	// sum-eligible candidates exist, only the closest-by-date ones
	// are searched.
	MaxSumCandidates int
	// MaxSumParts is the largest combination size tried.
	MaxSumParts int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxDayDiff:         3,
		FallbackDayDiff:    7,
		SumTolerance:       decimal.NewFromFloat(0.01),
		FuzzyTolerance:     decimal.NewFromFloat(0.05),
		FuzzyMinSimilarity: 60,
		MaxSumCandidates:   30,
		MaxSumParts:        4,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxDayDiff < 0 {
		return fmt.Errorf("max_day_diff must not be negative, got %d", c.MaxDayDiff)
	}
	if c.FallbackDayDiff < c.MaxDayDiff {
		return fmt.Errorf("fallback window %d is narrower than max_day_diff %d", c.FallbackDayDiff, c.MaxDayDiff)
	}
	if c.SumTolerance.IsNegative() || c.FuzzyTolerance.IsNegative() {
		return fmt.Errorf("amount tolerances must not be negative")
	}
	if c.FuzzyMinSimilarity < 0 || c.FuzzyMinSimilarity > 100 {
		return fmt.Errorf("fuzzy_min_similarity must be within 0..100, got %d", c.FuzzyMinSimilarity)
	}
	if c.MaxSumCandidates < 2 {
		return fmt.Errorf("max_sum_candidates must be at least 2, got %d", c.MaxSumCandidates)
	}
	if c.MaxSumParts < 2 {
		return fmt.Errorf("max_sum_parts must be at least 2, got %d", c.MaxSumParts)
	}
	return nil
}

// windows returns the date windows to try in widening order, with the
// fallback capped at 7 days and duplicates collapsed.
func (c Config) windows() []int {
	fallback := c.FallbackDayDiff
	if fallback > 7 {
		fallback = 7
	}
	if fallback <= c.MaxDayDiff {
		return []int{c.MaxDayDiff}
	}
	return []int{c.MaxDayDiff, fallback}
}
