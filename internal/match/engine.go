package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

// Section keywords that decide the expected money direction of a
// credit-card bill line. Sections matching neither set are treated as
// catch-all and carry a fixed direction penalty of 1.
var (
	refundSectionMarkers  = []string{"退款", "退货", "返现", "溢缴款", "refund"}
	expenseSectionMarkers = []string{"消费", "分期", "费用", "取现", "预借"}
	repaymentMarkers      = []string{"还款", "repayment"}
)

// Engine matches bill and statement lines against the detail pool. It
// holds no per-run state; everything mutable lives in the
// MatchingState passed into each call, so one engine value serves a
// whole run and separate runs stay isolated.
type Engine struct {
	pool     *detail.Pool
	selector *Selector
	cfg      Config
	source   model.SourceKind
}

// NewEngine creates a match engine for one bill-side source kind.
func NewEngine(pool *detail.Pool, aliases *detail.CardAliasResolver, cfg Config, source model.SourceKind) *Engine {
	return &Engine{
		pool:     pool,
		selector: NewSelector(pool, aliases, cfg),
		cfg:      cfg,
		source:   source,
	}
}

// MatchBillLine matches one credit-card bill line. Repayment lines and
// lines missing the fields matching needs terminate early with their
// own statuses; everything else runs the exact/sum/fuzzy/dup-reuse
// pipeline.
func (e *Engine) MatchBillLine(line model.BillLine, state *MatchingState) model.MatchOutcome {
	if containsAny(strings.ToLower(line.Section), repaymentMarkers) {
		return model.Unmatched(model.StatusSkippedRepayment)
	}
	if line.CardSuffix == "" {
		return model.Unmatched(model.StatusMissingSuffix)
	}
	if line.TransDate.IsZero() {
		return model.Unmatched(model.StatusMissingDate)
	}
	return e.match(line, state)
}

// MatchStatementLine matches one bank statement line. Lines that do
// not look like third-party quick-pay settlements are never attempted:
// they are legitimate unmatched movements (salary, transfers) and stay
// visible in the ledger as no_candidate rather than a skipped status.
func (e *Engine) MatchStatementLine(stmt model.StatementLine, state *MatchingState) model.MatchOutcome {
	if !IsQuickPaySettlement(stmt.Summary + " " + stmt.Counterparty) {
		return model.Unmatched(model.StatusNoCandidate)
	}
	if stmt.AccountSuffix == "" {
		return model.Unmatched(model.StatusMissingSuffix)
	}
	if stmt.TransDate.IsZero() {
		return model.Unmatched(model.StatusMissingDate)
	}
	return e.match(stmt.AsBillLine(), state)
}

// match runs the pipeline: exact search, combinatorial sum search,
// fuzzy search, then duplicate reuse. Any resolution consumes its
// detail indexes immediately so later lines cannot claim them.
func (e *Engine) match(line model.BillLine, state *MatchingState) model.MatchOutcome {
	key := e.dupKey(line)
	channels := InferChannels(line.Description)
	cands := e.selector.Select(line, channels, state)
	dates := line.BaseDates()

	base := model.ScoreParts{
		Window:          cands.Window,
		ExactCandidates: len(cands.Exact),
		SumCandidates:   len(cands.SumEligible),
		FuzzyCandidates: len(cands.Fuzzy),
	}

	if outcome, ok := e.matchExact(line, cands, dates, base); ok {
		return e.resolve(key, state, outcome)
	}
	if outcome, ok := e.matchSum(line, cands, dates, channels, base); ok {
		return e.resolve(key, state, outcome)
	}
	outcome, fuzzyRejected := e.matchFuzzy(line, cands, dates, base)
	if outcome != nil {
		return e.resolve(key, state, *outcome)
	}

	// Duplicate reuse: an identical earlier line already resolved, and
	// consumed the candidates this line just failed to find.
	if cached, ok := state.LookupResolution(key); ok {
		sp := cached.Score
		sp.Reused = true
		return model.MatchOutcome{
			Status:        model.StatusDupReuse,
			Method:        model.MethodDupReuse,
			Confidence:    Confidence(sp),
			DetailIndexes: append([]int(nil), cached.DetailIndexes...),
			Score:         sp,
		}
	}

	switch {
	case fuzzyRejected:
		return model.MatchOutcome{Status: model.StatusFuzzyRejected, Score: base}
	case cands.Empty() && cands.AnyBeforeUsed:
		return model.MatchOutcome{Status: model.StatusAllCandidatesUsed, Score: base}
	default:
		return model.MatchOutcome{Status: model.StatusNoCandidate, Score: base}
	}
}

// resolve finalizes a successful outcome: consume the details and
// remember the resolution for duplicate lines.
func (e *Engine) resolve(key string, state *MatchingState, outcome model.MatchOutcome) model.MatchOutcome {
	state.Consume(outcome.DetailIndexes...)
	state.RememberResolution(key, outcome)
	return outcome
}

// matchExact picks the unused exact-amount candidate minimizing
// (date gap, direction penalty, -similarity), ties broken by pool order.
func (e *Engine) matchExact(line model.BillLine, cands Candidates, dates []time.Time, base model.ScoreParts) (model.MatchOutcome, bool) {
	bestIdx := -1
	var bestGap, bestPenalty, bestSim int

	for _, idx := range cands.Exact {
		rec := e.pool.Record(idx)
		gap := minDateGap(rec.Date, dates)
		penalty := e.directionPenalty(line, rec.Direction)
		sim := ContainsSimilarity(line.Description, rec.Counterparty+" "+rec.Item)

		if bestIdx < 0 || lessTuple(gap, penalty, sim, bestGap, bestPenalty, bestSim) {
			bestIdx, bestGap, bestPenalty, bestSim = idx, gap, penalty, sim
		}
	}
	if bestIdx < 0 {
		return model.MatchOutcome{}, false
	}

	sp := base
	sp.DateGap = bestGap
	sp.DirectionPenalty = bestPenalty
	sp.Similarity = bestSim
	sp.Parts = 1

	return model.MatchOutcome{
		Status:        model.StatusMatched,
		Method:        model.MethodExact,
		Confidence:    Confidence(sp),
		DetailIndexes: []int{bestIdx},
		Score:         sp,
	}, true
}

// matchSum runs the combinatorial search: same-channel combinations
// across every plausible channel first, then a cross-channel retry
// when more than one channel was plausible.
func (e *Engine) matchSum(line model.BillLine, cands Candidates, dates []time.Time, channels []model.Channel, base model.ScoreParts) (model.MatchOutcome, bool) {
	if len(cands.SumEligible) < 2 {
		return model.MatchOutcome{}, false
	}

	var combo *sumCombo
	for _, ch := range channels {
		chCands := e.filterChannel(cands.SumEligible, ch)
		if c := e.searchSum(line, chCands, dates); c != nil && c.better(combo) {
			combo = c
		}
	}
	if combo == nil && len(channels) > 1 {
		combo = e.searchSum(line, cands.SumEligible, dates)
	}
	if combo == nil {
		return model.MatchOutcome{}, false
	}

	sp := base
	sp.DateGap = combo.maxDateGap
	sp.DirectionPenalty = combo.maxDirPenalty
	sp.Similarity = combo.similarity
	sp.Parts = len(combo.indexes)
	sp.CrossChannel = combo.crossChannel

	return model.MatchOutcome{
		Status:        model.StatusMatched,
		Method:        model.SumMethod(sp.Parts, sp.CrossChannel),
		Confidence:    Confidence(sp),
		DetailIndexes: combo.indexes,
		Score:         sp,
	}, true
}

// matchFuzzy picks the fuzzy candidate minimizing (date gap, direction
// penalty, amount gap, -similarity) among those clearing the
// similarity floor. The second return is true when fuzzy candidates
// existed but none cleared the floor.
func (e *Engine) matchFuzzy(line model.BillLine, cands Candidates, dates []time.Time, base model.ScoreParts) (*model.MatchOutcome, bool) {
	if len(cands.Fuzzy) == 0 {
		return nil, false
	}

	target := line.AbsAmount()
	bestIdx := -1
	var bestSP model.ScoreParts

	for _, idx := range cands.Fuzzy {
		rec := e.pool.Record(idx)
		sim := ContainsSimilarity(line.Description, rec.Counterparty+" "+rec.Item)
		if sim < e.cfg.FuzzyMinSimilarity {
			continue
		}
		gap := minDateGap(rec.Date, dates)
		penalty := e.directionPenalty(line, rec.Direction)
		amountGap := rec.AbsAmount().Sub(target).Abs()

		better := bestIdx < 0
		if !better {
			switch {
			case gap != bestSP.DateGap:
				better = gap < bestSP.DateGap
			case penalty != bestSP.DirectionPenalty:
				better = penalty < bestSP.DirectionPenalty
			case !amountGap.Equal(bestSP.AmountGap):
				better = amountGap.LessThan(bestSP.AmountGap)
			default:
				better = sim > bestSP.Similarity
			}
		}
		if !better {
			continue
		}

		bestIdx = idx
		bestSP = base
		bestSP.DateGap = gap
		bestSP.DirectionPenalty = penalty
		bestSP.Similarity = sim
		bestSP.AmountGap = amountGap
		bestSP.AmountTolerance = e.cfg.FuzzyTolerance
		bestSP.Parts = 1
	}

	if bestIdx < 0 {
		return nil, true
	}
	return &model.MatchOutcome{
		Status:        model.StatusMatched,
		Method:        model.MethodFuzzy,
		Confidence:    Confidence(bestSP),
		DetailIndexes: []int{bestIdx},
		Score:         bestSP,
	}, false
}

// directionPenalty scores how a detail record's direction agrees with
// the direction the line's section implies: 0 on agreement, 2 on
// mismatch, 1 for catch-all sections with no implied direction.
func (e *Engine) directionPenalty(line model.BillLine, dir model.Direction) int {
	expected, catchAll := e.expectedDirection(line)
	if catchAll {
		return 1
	}
	if dir == expected {
		return 0
	}
	return 2
}

func (e *Engine) expectedDirection(line model.BillLine) (model.Direction, bool) {
	if e.source == model.SourceBank {
		// Statements carry no sections; the sign decides.
		if line.Amount.IsNegative() {
			return model.DirectionExpense, false
		}
		return model.DirectionIncome, false
	}

	section := strings.ToLower(line.Section)
	switch {
	case containsAny(section, refundSectionMarkers):
		return model.DirectionIncome, false
	case containsAny(section, expenseSectionMarkers):
		return model.DirectionExpense, false
	}
	return "", true
}

// dupKey builds the discriminating key that identifies duplicate lines
// emitted twice by upstream extraction.
func (e *Engine) dupKey(line model.BillLine) string {
	post := ""
	if line.HasPostDate() {
		post = line.PostDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		e.source,
		line.Section,
		line.TransDate.Format("2006-01-02"),
		post,
		line.Amount.String(),
		line.Description,
		line.CardSuffix,
	)
}

// lessTuple compares (gap, penalty, -sim) tuples lexicographically.
func lessTuple(gap, penalty, sim, bestGap, bestPenalty, bestSim int) bool {
	if gap != bestGap {
		return gap < bestGap
	}
	if penalty != bestPenalty {
		return penalty < bestPenalty
	}
	return sim > bestSim
}
