package match

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/linqiu/onebill/internal/model"
)

// sumCombo is one combination found by the sum search, with the tuple
// the search ranks combinations by.
type sumCombo struct {
	indexes       []int
	maxDateGap    int
	maxDirPenalty int
	similarity    int
	crossChannel  bool
}

// better reports whether c ranks strictly ahead of other by
// (max date gap, max direction penalty, -similarity). The search keeps
// the first combo on ties, so enumeration order decides them
// deterministically.
func (c sumCombo) better(other *sumCombo) bool {
	if other == nil {
		return true
	}
	if c.maxDateGap != other.maxDateGap {
		return c.maxDateGap < other.maxDateGap
	}
	if c.maxDirPenalty != other.maxDirPenalty {
		return c.maxDirPenalty < other.maxDirPenalty
	}
	return c.similarity > other.similarity
}

// searchSum looks for a combination of 2..MaxSumParts unused candidates
// whose absolute amounts sum to the bill amount within the sum
// tolerance. Candidates arrive in ascending pool order and are
// truncated to the closest-by-date MaxSumCandidates before
// enumeration, which bounds the combinatorial blow-up. Smaller
// combinations are enumerated first and win score ties.
func (e *Engine) searchSum(line model.BillLine, candidates []int, dates []time.Time) *sumCombo {
	candidates = e.selector.truncateForSum(candidates, dates)
	if len(candidates) < 2 {
		return nil
	}

	target := line.AbsAmount()
	amounts := make([]decimal.Decimal, len(candidates))
	for i, idx := range candidates {
		amounts[i] = e.pool.Record(idx).AbsAmount()
	}

	maxParts := e.cfg.MaxSumParts
	if maxParts > len(candidates) {
		maxParts = len(candidates)
	}

	var best *sumCombo
	combo := make([]int, 0, maxParts)

	var walk func(start int, sum decimal.Decimal, size, wantSize int)
	walk = func(start int, sum decimal.Decimal, size, wantSize int) {
		if size == wantSize {
			if sum.Sub(target).Abs().LessThanOrEqual(e.cfg.SumTolerance) {
				c := e.scoreCombo(line, combo, dates)
				if c.better(best) {
					best = &c
				}
			}
			return
		}
		for i := start; i <= len(candidates)-(wantSize-size); i++ {
			next := sum.Add(amounts[i])
			// Amounts are all <= target, so an over-budget prefix can
			// never come back under it.
			if next.GreaterThan(target.Add(e.cfg.SumTolerance)) {
				continue
			}
			combo = append(combo, candidates[i])
			walk(i+1, next, size+1, wantSize)
			combo = combo[:len(combo)-1]
		}
	}

	for parts := 2; parts <= maxParts; parts++ {
		walk(0, decimal.Zero, 0, parts)
	}
	return best
}

// scoreCombo computes the ranking tuple for a candidate combination.
func (e *Engine) scoreCombo(line model.BillLine, indexes []int, dates []time.Time) sumCombo {
	c := sumCombo{indexes: append([]int(nil), indexes...)}

	var text string
	channels := make(map[model.Channel]struct{})
	for _, idx := range indexes {
		rec := e.pool.Record(idx)
		if gap := minDateGap(rec.Date, dates); gap > c.maxDateGap {
			c.maxDateGap = gap
		}
		if p := e.directionPenalty(line, rec.Direction); p > c.maxDirPenalty {
			c.maxDirPenalty = p
		}
		if text != "" {
			text += " "
		}
		text += rec.Counterparty + " " + rec.Item
		channels[rec.Channel] = struct{}{}
	}

	c.similarity = ContainsSimilarity(line.Description, text)
	c.crossChannel = len(channels) > 1
	return c
}

// filterChannel keeps candidates belonging to a single channel,
// preserving order.
func (e *Engine) filterChannel(candidates []int, ch model.Channel) []int {
	out := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if e.pool.Record(idx).Channel == ch {
			out = append(out, idx)
		}
	}
	return out
}
