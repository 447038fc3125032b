package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

// Output column sets. Enriched tables carry the base input columns
// plus the appended match and detail columns; unmatched tables carry
// the base columns plus the terminal status.
var (
	cardBaseColumns = []string{"section", "trans_date", "post_date", "card_suffix", "description", "amount"}
	bankBaseColumns = []string{"trans_date", "summary", "counterparty", "account_suffix", "amount"}

	matchColumns = []string{
		"match_status", "match_method", "match_confidence", "match_group_id",
		"matched_trade_nos", "matched_channels",
		"detail_counterparty", "detail_item", "detail_pay_method",
	}

	unifiedColumns = []string{
		"trade_time", "trade_date", "account", "amount", "abs_amount", "flow",
		"merchant", "item", "category", "pay_method", "source", "sources",
		"match_status", "match_group_id", "remark",
	}
)

// CardTables renders the enriched and unmatched tables for credit-card
// results. Every input line lands in exactly one of the two.
func CardTables(pool *detail.Pool, lines []model.BillLine, outcomes []model.MatchOutcome) (enriched, unmatched [][]string) {
	enriched = [][]string{append(append([]string{}, cardBaseColumns...), matchColumns...)}
	unmatched = [][]string{append(append([]string{}, cardBaseColumns...), "match_status")}

	for i, line := range lines {
		base := cardBaseRow(line)
		if outcomes[i].Status.Matched() {
			enriched = append(enriched, append(base, matchRow(pool, outcomes[i])...))
		} else {
			unmatched = append(unmatched, append(base, string(outcomes[i].Status)))
		}
	}
	return enriched, unmatched
}

// BankTables renders the enriched and unmatched tables for bank
// statement results.
func BankTables(pool *detail.Pool, lines []model.StatementLine, outcomes []model.MatchOutcome) (enriched, unmatched [][]string) {
	enriched = [][]string{append(append([]string{}, bankBaseColumns...), matchColumns...)}
	unmatched = [][]string{append(append([]string{}, bankBaseColumns...), "match_status")}

	for i, line := range lines {
		base := bankBaseRow(line)
		if outcomes[i].Status.Matched() {
			enriched = append(enriched, append(base, matchRow(pool, outcomes[i])...))
		} else {
			unmatched = append(unmatched, append(base, string(outcomes[i].Status)))
		}
	}
	return enriched, unmatched
}

// UnifiedTable renders the unified ledger, match_group_id included so
// the downstream finalize stage can dedup without re-deriving match
// state.
func UnifiedTable(rows []model.UnifiedRow) [][]string {
	out := [][]string{append([]string{}, unifiedColumns...)}
	for i := range rows {
		r := &rows[i]
		out = append(out, []string{
			formatTime(r.TradeTime),
			formatDate(r.TradeDate),
			r.Account,
			r.Amount.String(),
			r.AbsAmount().String(),
			string(r.Flow),
			r.Merchant,
			r.Item,
			r.Category,
			r.PayMethod,
			string(r.Source),
			r.Sources,
			string(r.MatchStatus),
			r.MatchGroupID,
			r.Remark,
		})
	}
	return out
}

// WriteCSV writes a rendered table to path.
func WriteCSV(path string, table [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.WriteAll(table); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

func cardBaseRow(line model.BillLine) []string {
	return []string{
		line.Section,
		formatDate(line.TransDate),
		formatDate(line.PostDate),
		line.CardSuffix,
		line.Description,
		line.Amount.String(),
	}
}

func bankBaseRow(line model.StatementLine) []string {
	return []string{
		formatDate(line.TransDate),
		line.Summary,
		line.Counterparty,
		line.AccountSuffix,
		line.Amount.String(),
	}
}

// matchRow renders the appended match columns for a resolved line.
func matchRow(pool *detail.Pool, outcome model.MatchOutcome) []string {
	var tradeNos, channels []string
	seenCh := make(map[model.Channel]struct{})
	var details []*model.DetailRecord
	for _, idx := range outcome.DetailIndexes {
		rec := pool.Record(idx)
		details = append(details, rec)
		if rec.TradeNo != "" {
			tradeNos = append(tradeNos, rec.TradeNo)
		}
		if _, ok := seenCh[rec.Channel]; !ok {
			seenCh[rec.Channel] = struct{}{}
			channels = append(channels, string(rec.Channel))
		}
	}

	var counterparty, item, payMethod string
	if len(details) > 0 {
		counterparty = details[0].Counterparty
		item = details[0].Item
		payMethod = details[0].PayMethod
	}

	return []string{
		string(outcome.Status),
		string(outcome.Method),
		FormatConfidence(outcome.Confidence),
		model.MatchGroupID(model.DetailGroupIdentifiers(details)),
		strings.Join(tradeNos, ";"),
		strings.Join(channels, ";"),
		counterparty,
		item,
		payMethod,
	}
}

// FormatConfidence renders a confidence value with the engine's three
// decimal places.
func FormatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 3, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
