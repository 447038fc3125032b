package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DetailRecord is one wallet-export transaction. Records are built once
// per run from the normalized export files and consumed read-only; the
// matching layer tracks consumption separately so a record is matched
// at most once per run.
type DetailRecord struct {
	TradeTime    time.Time
	Date         time.Time // day precision, derived from TradeTime
	Channel      Channel
	Direction    Direction
	Amount       decimal.Decimal // signed: negative for expenses
	CardSuffix   string          // masked suffix parsed from PayMethod, "" if none
	Counterparty string
	Item         string
	TradeNo      string
	MerchantNo   string
	Status       string
	Category     string
	PayMethod    string // raw payment-method text from the export
	Remark       string
}

// AbsAmount returns the magnitude of the record's amount.
func (d *DetailRecord) AbsAmount() decimal.Decimal {
	return d.Amount.Abs()
}

// Matchable reports whether the record can participate in card matching.
// Records without a parsed card suffix stay in the pool for the unified
// ledger but are never candidates.
func (d *DetailRecord) Matchable() bool {
	return d.CardSuffix != ""
}

// IdentityKey returns the pair of free-text identifiers that name this
// record for match-group hashing. Either may be empty; both empty means
// the record cannot anchor a match group.
func (d *DetailRecord) IdentityKey() string {
	return d.TradeNo + "|" + d.MerchantNo
}
