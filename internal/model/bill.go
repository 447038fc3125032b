package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillLine is one credit-card bill entry produced by the upstream
// extraction stage. Lines are read-only inputs to matching.
type BillLine struct {
	Section     string // bill section heading, e.g. 消费明细 / 还款 / 退款
	TransDate   time.Time
	PostDate    time.Time // zero when the bill has no posting date
	CardSuffix  string
	Amount      decimal.Decimal // signed: positive for charges
	Description string
}

// HasPostDate reports whether the line carries a posting date distinct
// from the transaction date.
func (b *BillLine) HasPostDate() bool {
	return !b.PostDate.IsZero()
}

// AbsAmount returns the magnitude of the line's amount.
func (b *BillLine) AbsAmount() decimal.Decimal {
	return b.Amount.Abs()
}

// BaseDates returns the dates candidate windows are anchored on: the
// transaction date, plus the posting date when present.
func (b *BillLine) BaseDates() []time.Time {
	if b.HasPostDate() {
		return []time.Time{b.TransDate, b.PostDate}
	}
	return []time.Time{b.TransDate}
}

// StatementLine is one bank statement entry. The statement schema is
// flatter than the credit-card bill: no sections and no posting date.
type StatementLine struct {
	TransDate     time.Time
	Summary       string
	Counterparty  string
	AccountSuffix string
	Amount        decimal.Decimal // signed: negative for debits
}

// AbsAmount returns the magnitude of the line's amount.
func (s *StatementLine) AbsAmount() decimal.Decimal {
	return s.Amount.Abs()
}

// AsBillLine adapts a statement line to the bill-line shape the match
// engine operates on. The summary doubles as the section text so the
// direction heuristics can inspect it.
func (s *StatementLine) AsBillLine() BillLine {
	return BillLine{
		Section:     s.Summary,
		TransDate:   s.TransDate,
		CardSuffix:  s.AccountSuffix,
		Amount:      s.Amount,
		Description: s.Summary + " " + s.Counterparty,
	}
}
