package unify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func amt(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func walletExpense(t *testing.T, date, amount, counterparty, tradeNo string) model.DetailRecord {
	t.Helper()
	d := day(t, date)
	return model.DetailRecord{
		TradeTime:    d.Add(9 * time.Hour),
		Date:         d,
		Channel:      model.ChannelAlipay,
		Direction:    model.DirectionExpense,
		Amount:       amt(t, amount).Neg(),
		CardSuffix:   "4101",
		Counterparty: counterparty,
		Item:         "商品",
		Category:     "餐饮",
		PayMethod:    "招商银行信用卡(4101)",
		TradeNo:      tradeNo,
	}
}

func matchedOutcome(indexes ...int) model.MatchOutcome {
	return model.MatchOutcome{
		Status:        model.StatusMatched,
		Method:        model.MethodExact,
		Confidence:    1.0,
		DetailIndexes: indexes,
	}
}

func TestBuildSuppressesMatchedWalletRow(t *testing.T) {
	pool := detail.NewPool([]model.DetailRecord{
		walletExpense(t, "2025-01-21", "3.57", "星巴克", "trade-1"),
	})
	builder := NewBuilder(pool)

	cards := []CardResult{{
		Line: model.BillLine{
			Section:     "消费明细",
			TransDate:   day(t, "2025-01-21"),
			CardSuffix:  "4101",
			Amount:      amt(t, "3.57"),
			Description: "支付宝-星巴克",
		},
		Outcome: matchedOutcome(0),
	}}

	rows := builder.Build(cards, nil)

	// One event, one row: the wallet duplicate is claimed by group id.
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, model.SourceCreditCard, row.Source)
	assert.Equal(t, "credit_card+alipay", row.Sources)
	assert.Equal(t, "星巴克", row.Merchant)
	assert.Equal(t, "商品", row.Item)
	assert.Equal(t, "餐饮", row.Category)
	assert.Equal(t, "招商银行信用卡(4101)", row.PayMethod)
	assert.Equal(t, model.FlowExpense, row.Flow)
	assert.Len(t, row.MatchGroupID, 16)
}

func TestBuildKeepsUnmatchedWalletRow(t *testing.T) {
	pool := detail.NewPool([]model.DetailRecord{
		walletExpense(t, "2025-01-21", "3.57", "星巴克", "trade-1"),
		walletExpense(t, "2025-01-22", "42.00", "盒马鲜生", "trade-2"),
	})
	builder := NewBuilder(pool)

	cards := []CardResult{{
		Line: model.BillLine{
			Section:     "消费明细",
			TransDate:   day(t, "2025-01-21"),
			CardSuffix:  "4101",
			Amount:      amt(t, "3.57"),
			Description: "星巴克",
		},
		Outcome: matchedOutcome(0),
	}}

	rows := builder.Build(cards, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, model.SourceCreditCard, rows[0].Source)
	assert.Equal(t, model.SourceWallet, rows[1].Source)
	assert.Equal(t, "盒马鲜生", rows[1].Merchant)
	assert.Equal(t, model.FlowExpense, rows[1].Flow)
	assert.NotEmpty(t, rows[1].MatchGroupID)
}

func TestBuildUnmatchedBillLinesStayVisible(t *testing.T) {
	builder := NewBuilder(detail.NewPool(nil))

	banks := []BankResult{{
		Line: model.StatementLine{
			TransDate:     day(t, "2025-01-25"),
			Summary:       "代发工资",
			Counterparty:  "某某科技有限公司",
			AccountSuffix: "4101",
			Amount:        amt(t, "15000.00"),
		},
		Outcome: model.Unmatched(model.StatusNoCandidate),
	}}

	rows := builder.Build(nil, banks)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, model.SourceBank, row.Source)
	assert.Equal(t, model.FlowIncome, row.Flow)
	assert.Equal(t, model.StatusNoCandidate, row.MatchStatus)
	assert.Equal(t, "银行卡(4101)", row.Account)
	assert.Empty(t, row.MatchGroupID)
}

func TestBuildCardRefundFlowsAsIncome(t *testing.T) {
	builder := NewBuilder(detail.NewPool(nil))

	cards := []CardResult{{
		Line: model.BillLine{
			Section:     "退款明细",
			TransDate:   day(t, "2025-01-21"),
			CardSuffix:  "4101",
			Amount:      amt(t, "9.90").Neg(),
			Description: "退款-星巴克",
		},
		Outcome: model.Unmatched(model.StatusNoCandidate),
	}}

	rows := builder.Build(cards, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.FlowIncome, rows[0].Flow)
}

func TestBuildSortsByDateTimeAccount(t *testing.T) {
	pool := detail.NewPool([]model.DetailRecord{
		walletExpense(t, "2025-01-23", "5.00", "晚", "t3"),
		walletExpense(t, "2025-01-21", "5.00", "早", "t1"),
		walletExpense(t, "2025-01-22", "5.00", "中", "t2"),
	})
	builder := NewBuilder(pool)

	rows := builder.Build(nil, nil)

	require.Len(t, rows, 3)
	assert.Equal(t, "早", rows[0].Merchant)
	assert.Equal(t, "中", rows[1].Merchant)
	assert.Equal(t, "晚", rows[2].Merchant)
}

func TestBuildMultipartMatchSuppressesAllParts(t *testing.T) {
	pool := detail.NewPool([]model.DetailRecord{
		walletExpense(t, "2025-01-21", "12.50", "美团外卖", "t1"),
		walletExpense(t, "2025-01-21", "17.50", "美团外卖", "t2"),
	})
	builder := NewBuilder(pool)

	cards := []CardResult{{
		Line: model.BillLine{
			Section:     "消费明细",
			TransDate:   day(t, "2025-01-21"),
			CardSuffix:  "4101",
			Amount:      amt(t, "30.00"),
			Description: "美团外卖",
		},
		Outcome: model.MatchOutcome{
			Status:        model.StatusMatched,
			Method:        model.MatchMethod("sum_2"),
			Confidence:    0.88,
			DetailIndexes: []int{0, 1},
		},
	}}

	rows := builder.Build(cards, nil)

	// Both constituent wallet rows collapse into the one bill row.
	require.Len(t, rows, 1)
	assert.Equal(t, model.SourceCreditCard, rows[0].Source)
	assert.Equal(t, "credit_card+alipay", rows[0].Sources)
	assert.Len(t, rows[0].MatchGroupID, 16)
}
