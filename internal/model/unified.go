package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnifiedRow is one row of the merged ledger. Rows derive
// deterministically either from a bill/statement line plus its match
// outcome, or from a wallet detail record directly.
type UnifiedRow struct {
	TradeTime    time.Time
	TradeDate    time.Time
	Account      string // account label, e.g. "信用卡(4101)"
	Amount       decimal.Decimal
	Flow         FlowKind
	Merchant     string
	Item         string
	Category     string
	PayMethod    string
	Source       SourceKind // primary source of this row
	Sources      string     // joined list of every contributing source
	MatchStatus  MatchStatus
	MatchGroupID string
	Remark       string
}

// AbsAmount returns the magnitude of the row's amount.
func (u *UnifiedRow) AbsAmount() decimal.Decimal {
	return u.Amount.Abs()
}
