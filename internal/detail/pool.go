// Package detail assembles wallet-export rows into the candidate pool
// the match engine searches over.
package detail

import (
	"regexp"

	"github.com/linqiu/onebill/internal/model"
)

// cardSuffixPattern recognizes a card-type marker followed by a masked
// 3-4 digit suffix in payment-method text, covering both half and full
// width parentheses, e.g. "招商银行储蓄卡(4101)" or "信用卡（1234）".
var cardSuffixPattern = regexp.MustCompile(`(?:储蓄卡|信用卡|借记卡|银行卡)\s*[(（](\d{3,4})[)）]`)

// ExtractCardSuffix parses the masked card suffix out of payment-method
// text. It returns "" when the text carries no recognizable card
// reference; that is not an error, the record is simply not matchable.
func ExtractCardSuffix(payMethod string) string {
	m := cardSuffixPattern.FindStringSubmatch(payMethod)
	if m == nil {
		return ""
	}
	return m[1]
}

// Pool is the combined, order-stable collection of detail records for
// one run. Records keep their construction index for the lifetime of
// the run; the match layer refers to them by that index.
type Pool struct {
	records []model.DetailRecord
}

// NewPool combines per-channel record slices into one pool. Channel A
// rows precede channel B rows and file order is preserved within each,
// so indexes are stable across identical runs. Card suffixes are
// extracted here when the upstream normalizer left them blank.
func NewPool(channels ...[]model.DetailRecord) *Pool {
	var combined []model.DetailRecord
	for _, rows := range channels {
		combined = append(combined, rows...)
	}
	for i := range combined {
		if combined[i].CardSuffix == "" {
			combined[i].CardSuffix = ExtractCardSuffix(combined[i].PayMethod)
		}
	}
	return &Pool{records: combined}
}

// Len returns the number of records in the pool.
func (p *Pool) Len() int {
	return len(p.records)
}

// Record returns the record at index i. The returned pointer aliases
// pool storage; callers treat records as read-only.
func (p *Pool) Record(i int) *model.DetailRecord {
	return &p.records[i]
}

// Records returns all records in pool order.
func (p *Pool) Records() []model.DetailRecord {
	return p.records
}

// MatchableIndexes returns the indexes of records that can participate
// in card matching, in pool order.
func (p *Pool) MatchableIndexes() []int {
	idx := make([]int, 0, len(p.records))
	for i := range p.records {
		if p.records[i].Matchable() {
			idx = append(idx, i)
		}
	}
	return idx
}
