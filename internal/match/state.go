package match

import (
	"sort"

	"github.com/linqiu/onebill/internal/model"
)

// MatchingState is the per-run mutable matching state: the set of
// consumed detail indexes and the duplicate-resolution cache. It is
// created once per run and passed explicitly into every matching call;
// nothing in this package holds process-wide state, so separate runs
// never contaminate each other.
type MatchingState struct {
	used     map[int]struct{}
	dupCache map[string]model.MatchOutcome
}

// NewState creates empty matching state for one run.
func NewState() *MatchingState {
	return &MatchingState{
		used:     make(map[int]struct{}),
		dupCache: make(map[string]model.MatchOutcome),
	}
}

// IsUsed reports whether the detail record at index i has been consumed.
func (s *MatchingState) IsUsed(i int) bool {
	_, ok := s.used[i]
	return ok
}

// Consume marks detail indexes as used. A record consumed here can not
// appear in any later outcome except via the dup-reuse path.
func (s *MatchingState) Consume(indexes ...int) {
	for _, i := range indexes {
		s.used[i] = struct{}{}
	}
}

// UsedIndexes returns the consumed indexes in ascending order.
func (s *MatchingState) UsedIndexes() []int {
	out := make([]int, 0, len(s.used))
	for i := range s.used {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// RememberResolution caches a matched outcome under a line's
// discriminating key so later duplicate lines in the same run can
// reuse it.
func (s *MatchingState) RememberResolution(key string, outcome model.MatchOutcome) {
	if _, ok := s.dupCache[key]; !ok {
		s.dupCache[key] = outcome
	}
}

// LookupResolution returns a previously cached outcome for the key.
func (s *MatchingState) LookupResolution(key string) (model.MatchOutcome, bool) {
	outcome, ok := s.dupCache[key]
	return outcome, ok
}
