package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchStatus is the terminal state of matching one bill or statement
// line. Non-matched statuses are normal per-row results, not errors.
type MatchStatus string

const (
	// StatusMatched means one or more detail records were resolved.
	StatusMatched MatchStatus = "matched"
	// StatusNoCandidate means no plausible detail record existed.
	StatusNoCandidate MatchStatus = "no_candidate"
	// StatusSkippedRepayment means the line is a card repayment and
	// was deliberately not attempted.
	StatusSkippedRepayment MatchStatus = "skipped_repayment"
	// StatusMissingSuffix means the line carries no parseable card or
	// account suffix to search by.
	StatusMissingSuffix MatchStatus = "missing_suffix"
	// StatusMissingDate means the line carries no usable transaction date.
	StatusMissingDate MatchStatus = "missing_date"
	// StatusAllCandidatesUsed means candidates existed but every one
	// was already consumed by an earlier line in this run.
	StatusAllCandidatesUsed MatchStatus = "all_candidates_used"
	// StatusFuzzyRejected means fuzzy candidates existed but none
	// cleared the similarity floor.
	StatusFuzzyRejected MatchStatus = "fuzzy_rejected"
	// StatusDupReuse means the line duplicated an earlier line and
	// reused its resolution.
	StatusDupReuse MatchStatus = "dup_reuse"
)

// Matched reports whether the status represents a resolved line.
func (s MatchStatus) Matched() bool {
	return s == StatusMatched || s == StatusDupReuse
}

// MatchMethod names how a resolution was found.
type MatchMethod string

const (
	// MethodExact is a single-record exact-amount match.
	MethodExact MatchMethod = "exact"
	// MethodFuzzy is a single-record tolerance match.
	MethodFuzzy MatchMethod = "fuzzy"
	// MethodDupReuse is a reuse of an earlier duplicate line's resolution.
	MethodDupReuse MatchMethod = "dup_reuse"
)

// SumMethod returns the method tag for a combinatorial sum match of
// the given part count, e.g. sum_2 or, for cross-channel mixes, sum_mix_2.
func SumMethod(parts int, crossChannel bool) MatchMethod {
	if crossChannel {
		return MatchMethod(fmt.Sprintf("sum_mix_%d", parts))
	}
	return MatchMethod(fmt.Sprintf("sum_%d", parts))
}

// ScoreParts exposes every intermediate the confidence formula consumed,
// for the match debug table.
type ScoreParts struct {
	DateGap          int // days; max across members for sum matches
	Window           int // the date window (days) that produced candidates
	DirectionPenalty int // 0 expected, 1 catch-all, 2 mismatch; max for sums
	Similarity       int // 0..100, 0 when no comparable text
	AmountGap        decimal.Decimal
	AmountTolerance  decimal.Decimal
	Parts            int
	CrossChannel     bool
	Reused           bool
	ExactCandidates  int
	SumCandidates    int
	FuzzyCandidates  int
}

// MatchOutcome is the immutable result of matching one line.
type MatchOutcome struct {
	Status        MatchStatus
	Method        MatchMethod
	Confidence    float64
	DetailIndexes []int // indexes into the run's detail pool
	Score         ScoreParts
}

// Unmatched builds a terminal outcome with no resolved details.
func Unmatched(status MatchStatus) MatchOutcome {
	return MatchOutcome{Status: status}
}
