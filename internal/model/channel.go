// Package model defines the core domain types shared across the
// reconciliation engine: wallet detail records, bill and statement
// lines, match outcomes, and unified ledger rows.
package model

// Channel identifies the wallet platform a detail record came from.
// The set of channels is closed and known at compile time.
type Channel string

const (
	// ChannelAlipay is the Alipay export channel.
	ChannelAlipay Channel = "alipay"
	// ChannelWechat is the WeChat Pay export channel.
	ChannelWechat Channel = "wechat"
)

// AllChannels lists every wallet channel in a fixed, deterministic order.
func AllChannels() []Channel {
	return []Channel{ChannelAlipay, ChannelWechat}
}

// Direction is the money flow direction of a detail record.
type Direction string

const (
	// DirectionIncome marks inflows (收入).
	DirectionIncome Direction = "income"
	// DirectionExpense marks outflows (支出).
	DirectionExpense Direction = "expense"
	// DirectionNeutral marks movements that are neither, such as
	// transfers between own accounts (不计收支).
	DirectionNeutral Direction = "neutral"
)

// ParseDirection maps the direction text found in wallet exports to a
// Direction. Unrecognized text maps to DirectionNeutral.
func ParseDirection(s string) Direction {
	switch s {
	case "收入", "income":
		return DirectionIncome
	case "支出", "expense":
		return DirectionExpense
	default:
		return DirectionNeutral
	}
}

// SourceKind identifies which bill-side source a line came from.
type SourceKind string

const (
	// SourceCreditCard marks credit-card bill lines.
	SourceCreditCard SourceKind = "credit_card"
	// SourceBank marks bank statement lines.
	SourceBank SourceKind = "bank"
	// SourceWallet marks ledger rows that originate from a wallet
	// export rather than a bill or statement.
	SourceWallet SourceKind = "wallet"
)

// FlowKind classifies a unified ledger row for reporting.
type FlowKind string

const (
	// FlowExpense is money going out.
	FlowExpense FlowKind = "expense"
	// FlowIncome is money coming in.
	FlowIncome FlowKind = "income"
	// FlowTransfer is movement between own accounts.
	FlowTransfer FlowKind = "transfer"
)
