package match

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

// alipayMarkers and wechatMarkers are the brand spellings that pin a
// bill line's description to a single wallet channel.
var (
	alipayMarkers = []string{"支付宝", "alipay", "蚂蚁"}
	wechatMarkers = []string{"微信", "财付通", "wechat", "weixin", "tenpay"}
)

// quickPayMarkers are the settlement keywords that make a bank
// statement line worth attempting at all. Statement rows without one
// (salary deposits, transfers) are legitimate non-wallet movements.
var quickPayMarkers = []string{"支付宝", "财付通", "微信", "快捷支付", "网联", "快捷付款"}

// InferChannels narrows the wallet channels plausible for a line from
// its free text. An explicit brand mention restricts to that channel;
// otherwise both channels are tried.
func InferChannels(text string) []model.Channel {
	lower := strings.ToLower(text)
	alipay := containsAny(lower, alipayMarkers)
	wechat := containsAny(lower, wechatMarkers)

	switch {
	case alipay && !wechat:
		return []model.Channel{model.ChannelAlipay}
	case wechat && !alipay:
		return []model.Channel{model.ChannelWechat}
	default:
		return model.AllChannels()
	}
}

// IsQuickPaySettlement reports whether a bank statement line's text
// looks like a third-party quick-pay settlement. Only such lines are
// attempted against the wallet pool.
func IsQuickPaySettlement(text string) bool {
	return containsAny(strings.ToLower(text), quickPayMarkers)
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// Candidates is one window's worth of candidate sets for a bill line.
// Indexes refer to the run's detail pool and are in ascending pool
// order, which keeps every downstream tie-break deterministic.
type Candidates struct {
	Window      int   // the window (days) that produced these sets
	Exact       []int // amount equals the bill amount exactly
	SumEligible []int // amount <= bill amount, for sum search
	// Fuzzy holds amounts within the fuzzy tolerance; populated only
	// when Exact and SumEligible are both empty.
	Fuzzy         []int
	AnyBeforeUsed bool // candidates existed before used-set exclusion
}

// Empty reports whether no candidate of any kind survived.
func (c Candidates) Empty() bool {
	return len(c.Exact) == 0 && len(c.SumEligible) == 0 && len(c.Fuzzy) == 0
}

// Selector narrows the detail pool to plausible candidates for one
// bill line using a widening date window.
type Selector struct {
	pool    *detail.Pool
	aliases *detail.CardAliasResolver
	cfg     Config
}

// NewSelector creates a candidate selector over the given pool.
func NewSelector(pool *detail.Pool, aliases *detail.CardAliasResolver, cfg Config) *Selector {
	return &Selector{pool: pool, aliases: aliases, cfg: cfg}
}

// Select tries date windows in increasing size and returns the first
// window's candidate sets that are non-empty. Channel restriction and
// the account suffix set apply in every window; used records are
// always excluded, with their prior existence reported so the engine
// can distinguish no_candidate from all_candidates_used.
func (s *Selector) Select(line model.BillLine, channels []model.Channel, state *MatchingState) Candidates {
	suffixes := s.aliases.Resolve(line.CardSuffix)
	amount := line.AbsAmount()
	dates := line.BaseDates()

	var last Candidates
	for _, window := range s.cfg.windows() {
		c := s.collect(window, amount, dates, channels, suffixes, state)
		if !c.Empty() {
			return c
		}
		last = c
	}
	return last
}

func (s *Selector) collect(window int, amount decimal.Decimal, dates []time.Time, channels []model.Channel, suffixes []string, state *MatchingState) Candidates {
	c := Candidates{Window: window}

	for i := 0; i < s.pool.Len(); i++ {
		rec := s.pool.Record(i)
		if !rec.Matchable() {
			continue
		}
		if !channelAllowed(rec.Channel, channels) {
			continue
		}
		if !suffixAllowed(rec.CardSuffix, suffixes) {
			continue
		}
		if minDateGap(rec.Date, dates) > window {
			continue
		}

		abs := rec.AbsAmount()
		inExact := abs.Equal(amount)
		inSum := abs.LessThanOrEqual(amount.Add(s.cfg.SumTolerance))
		if !inExact && !inSum && abs.Sub(amount).Abs().GreaterThan(s.cfg.FuzzyTolerance) {
			continue
		}

		if state.IsUsed(i) {
			c.AnyBeforeUsed = true
			continue
		}
		if inExact {
			c.Exact = append(c.Exact, i)
		}
		if inSum {
			c.SumEligible = append(c.SumEligible, i)
		}
	}

	// Fuzzy candidates are a last resort inside a window: only gather
	// them when neither exact nor sum search has anything to work with.
	if len(c.Exact) == 0 && len(c.SumEligible) == 0 {
		for i := 0; i < s.pool.Len(); i++ {
			rec := s.pool.Record(i)
			if !rec.Matchable() || !channelAllowed(rec.Channel, channels) || !suffixAllowed(rec.CardSuffix, suffixes) {
				continue
			}
			if minDateGap(rec.Date, dates) > window {
				continue
			}
			if rec.AbsAmount().Sub(amount).Abs().GreaterThan(s.cfg.FuzzyTolerance) {
				continue
			}
			if state.IsUsed(i) {
				c.AnyBeforeUsed = true
				continue
			}
			c.Fuzzy = append(c.Fuzzy, i)
		}
	}

	return c
}

// truncateForSum bounds the combinatorial search input: when more
// candidates exist than the cap, keep the ones closest by date gap,
// breaking ties by pool order so the cut is deterministic.
func (s *Selector) truncateForSum(indexes []int, dates []time.Time) []int {
	if len(indexes) <= s.cfg.MaxSumCandidates {
		return indexes
	}
	ranked := make([]int, len(indexes))
	copy(ranked, indexes)
	sort.SliceStable(ranked, func(a, b int) bool {
		ga := minDateGap(s.pool.Record(ranked[a]).Date, dates)
		gb := minDateGap(s.pool.Record(ranked[b]).Date, dates)
		if ga != gb {
			return ga < gb
		}
		return ranked[a] < ranked[b]
	})
	kept := ranked[:s.cfg.MaxSumCandidates]
	sort.Ints(kept)
	return kept
}

func channelAllowed(ch model.Channel, allowed []model.Channel) bool {
	for _, a := range allowed {
		if ch == a {
			return true
		}
	}
	return false
}

func suffixAllowed(suffix string, allowed []string) bool {
	for _, a := range allowed {
		if suffix == a {
			return true
		}
	}
	return false
}

// minDateGap is the smallest whole-day distance between a record date
// and any of the line's base dates.
func minDateGap(recDate time.Time, dates []time.Time) int {
	best := -1
	for _, d := range dates {
		gap := dayGap(recDate, d)
		if best < 0 || gap < best {
			best = gap
		}
	}
	return best
}

func dayGap(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	gap := int(da.Sub(db).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}
