package tabular

import (
	"strconv"
	"strings"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

// debugColumns exposes every scoring intermediate per attempted line,
// for auditing why a reconciliation succeeded or failed.
var debugColumns = []string{
	"line_no", "trans_date", "description", "suffix", "amount",
	"match_status", "match_method", "confidence",
	"window", "date_gap", "direction_penalty", "similarity",
	"amount_gap", "parts", "cross_channel", "reused",
	"exact_candidates", "sum_candidates", "fuzzy_candidates",
	"matched_trade_nos",
}

// DebugEntry is one row of the match debug table.
type DebugEntry struct {
	LineNo      int
	TransDate   string
	Description string
	Suffix      string
	Amount      string
	Outcome     model.MatchOutcome
}

// CardDebugEntry builds a debug entry from a credit-card line.
func CardDebugEntry(n int, line model.BillLine, outcome model.MatchOutcome) DebugEntry {
	return DebugEntry{
		LineNo:      n,
		TransDate:   formatDate(line.TransDate),
		Description: line.Description,
		Suffix:      line.CardSuffix,
		Amount:      line.Amount.String(),
		Outcome:     outcome,
	}
}

// BankDebugEntry builds a debug entry from a bank statement line.
func BankDebugEntry(n int, line model.StatementLine, outcome model.MatchOutcome) DebugEntry {
	return DebugEntry{
		LineNo:      n,
		TransDate:   formatDate(line.TransDate),
		Description: line.Summary + " " + line.Counterparty,
		Suffix:      line.AccountSuffix,
		Amount:      line.Amount.String(),
		Outcome:     outcome,
	}
}

// DebugTable renders the match debug table.
func DebugTable(pool *detail.Pool, entries []DebugEntry) [][]string {
	out := [][]string{append([]string{}, debugColumns...)}
	for _, e := range entries {
		sp := e.Outcome.Score

		var tradeNos []string
		for _, idx := range e.Outcome.DetailIndexes {
			if no := pool.Record(idx).TradeNo; no != "" {
				tradeNos = append(tradeNos, no)
			}
		}

		amountGap := ""
		if !sp.AmountGap.IsZero() {
			amountGap = sp.AmountGap.String()
		}

		out = append(out, []string{
			strconv.Itoa(e.LineNo),
			e.TransDate,
			e.Description,
			e.Suffix,
			e.Amount,
			string(e.Outcome.Status),
			string(e.Outcome.Method),
			FormatConfidence(e.Outcome.Confidence),
			strconv.Itoa(sp.Window),
			strconv.Itoa(sp.DateGap),
			strconv.Itoa(sp.DirectionPenalty),
			strconv.Itoa(sp.Similarity),
			amountGap,
			strconv.Itoa(sp.Parts),
			strconv.FormatBool(sp.CrossChannel),
			strconv.FormatBool(sp.Reused),
			strconv.Itoa(sp.ExactCandidates),
			strconv.Itoa(sp.SumCandidates),
			strconv.Itoa(sp.FuzzyCandidates),
			strings.Join(tradeNos, ";"),
		})
	}
	return out
}
