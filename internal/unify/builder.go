// Package unify merges matched and unmatched bill-side rows with
// wallet-export rows into the single unified ledger, and suppresses
// wallet rows that duplicate a bill-side row of the same event.
package unify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

// CardResult pairs a credit-card bill line with its match outcome.
type CardResult struct {
	Line    model.BillLine
	Outcome model.MatchOutcome
}

// BankResult pairs a bank statement line with its match outcome.
type BankResult struct {
	Line    model.StatementLine
	Outcome model.MatchOutcome
}

// Builder assembles the unified ledger for one run.
type Builder struct {
	pool *detail.Pool
}

// NewBuilder creates a ledger builder over the run's detail pool.
func NewBuilder(pool *detail.Pool) *Builder {
	return &Builder{pool: pool}
}

// Build merges bill-side rows (matched and unmatched, both sources)
// with the wallet-export rows. Wallet records consumed by a match are
// dropped: the bill-side row carries their fields and the shared
// match-group id, so keeping them would double-count the event. The
// result is stably sorted by (trade date, trade time, account label).
func (b *Builder) Build(cards []CardResult, banks []BankResult) []model.UnifiedRow {
	var rows []model.UnifiedRow
	consumed := make(map[int]struct{})

	claim := func(outcome model.MatchOutcome) {
		if !outcome.Status.Matched() {
			return
		}
		for _, idx := range outcome.DetailIndexes {
			consumed[idx] = struct{}{}
		}
	}

	for _, r := range cards {
		claim(r.Outcome)
		rows = append(rows, b.cardRow(r))
	}
	for _, r := range banks {
		claim(r.Outcome)
		rows = append(rows, b.bankRow(r))
	}

	for i := 0; i < b.pool.Len(); i++ {
		if _, ok := consumed[i]; ok {
			continue
		}
		rows = append(rows, b.walletRow(*b.pool.Record(i)))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TradeDate.Equal(rows[j].TradeDate) {
			return rows[i].TradeDate.Before(rows[j].TradeDate)
		}
		if !rows[i].TradeTime.Equal(rows[j].TradeTime) {
			return rows[i].TradeTime.Before(rows[j].TradeTime)
		}
		return rows[i].Account < rows[j].Account
	})

	return rows
}

func (b *Builder) cardRow(r CardResult) model.UnifiedRow {
	row := model.UnifiedRow{
		TradeTime:   r.Line.TransDate,
		TradeDate:   r.Line.TransDate,
		Account:     fmt.Sprintf("信用卡(%s)", r.Line.CardSuffix),
		Amount:      r.Line.Amount,
		Merchant:    r.Line.Description,
		PayMethod:   fmt.Sprintf("信用卡(%s)", r.Line.CardSuffix),
		Source:      model.SourceCreditCard,
		Sources:     string(model.SourceCreditCard),
		MatchStatus: r.Outcome.Status,
	}
	// Charges are positive on the bill; refunds come back negative.
	if r.Line.Amount.IsNegative() {
		row.Flow = model.FlowIncome
	} else {
		row.Flow = model.FlowExpense
	}
	b.applyMatch(&row, r.Outcome)
	return row
}

func (b *Builder) bankRow(r BankResult) model.UnifiedRow {
	row := model.UnifiedRow{
		TradeTime:   r.Line.TransDate,
		TradeDate:   r.Line.TransDate,
		Account:     fmt.Sprintf("银行卡(%s)", r.Line.AccountSuffix),
		Amount:      r.Line.Amount,
		Merchant:    r.Line.Counterparty,
		Item:        r.Line.Summary,
		PayMethod:   fmt.Sprintf("银行卡(%s)", r.Line.AccountSuffix),
		Source:      model.SourceBank,
		Sources:     string(model.SourceBank),
		MatchStatus: r.Outcome.Status,
	}
	if r.Line.Amount.IsNegative() {
		row.Flow = model.FlowExpense
	} else {
		row.Flow = model.FlowIncome
	}
	b.applyMatch(&row, r.Outcome)
	return row
}

// applyMatch overlays the matched detail records' richer fields onto a
// bill-side row and assigns the deterministic match-group id.
func (b *Builder) applyMatch(row *model.UnifiedRow, outcome model.MatchOutcome) {
	if !outcome.Status.Matched() || len(outcome.DetailIndexes) == 0 {
		return
	}

	details := make([]*model.DetailRecord, 0, len(outcome.DetailIndexes))
	channels := make([]string, 0, 2)
	seenCh := make(map[model.Channel]struct{})
	for _, idx := range outcome.DetailIndexes {
		rec := b.pool.Record(idx)
		details = append(details, rec)
		if _, ok := seenCh[rec.Channel]; !ok {
			seenCh[rec.Channel] = struct{}{}
			channels = append(channels, string(rec.Channel))
		}
	}

	primary := details[0]
	row.TradeTime = primary.TradeTime
	row.Merchant = primary.Counterparty
	row.Item = primary.Item
	row.Category = primary.Category
	row.PayMethod = primary.PayMethod
	if primary.Remark != "" {
		row.Remark = primary.Remark
	}
	row.Sources = strings.Join(append([]string{string(row.Source)}, channels...), "+")
	row.MatchGroupID = model.MatchGroupID(model.DetailGroupIdentifiers(details))
}

func (b *Builder) walletRow(rec model.DetailRecord) model.UnifiedRow {
	row := model.UnifiedRow{
		TradeTime:   rec.TradeTime,
		TradeDate:   rec.Date,
		Account:     walletAccountLabel(rec),
		Amount:      rec.Amount,
		Merchant:    rec.Counterparty,
		Item:        rec.Item,
		Category:    rec.Category,
		PayMethod:   rec.PayMethod,
		Source:      model.SourceWallet,
		Sources:     string(rec.Channel),
		MatchStatus: model.StatusNoCandidate,
		Remark:      rec.Remark,
	}
	switch rec.Direction {
	case model.DirectionExpense:
		row.Flow = model.FlowExpense
	case model.DirectionIncome:
		row.Flow = model.FlowIncome
	default:
		row.Flow = model.FlowTransfer
	}
	row.MatchGroupID = model.MatchGroupID([]string{rec.TradeNo, rec.MerchantNo})
	return row
}

func walletAccountLabel(rec model.DetailRecord) string {
	if rec.CardSuffix != "" {
		return fmt.Sprintf("%s(%s)", rec.Channel, rec.CardSuffix)
	}
	return string(rec.Channel)
}
