package match

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
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

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// testDetail builds a matchable expense detail record for the common
// test account.
func testDetail(t *testing.T, ch model.Channel, date, amt, counterparty, tradeNo string) model.DetailRecord {
	t.Helper()
	d := day(t, date)
	return model.DetailRecord{
		TradeTime:    d.Add(12 * time.Hour),
		Date:         d,
		Channel:      ch,
		Direction:    model.DirectionExpense,
		Amount:       amount(t, amt).Neg(),
		CardSuffix:   "4101",
		Counterparty: counterparty,
		TradeNo:      tradeNo,
		PayMethod:    "招商银行信用卡(4101)",
	}
}

// testBillLine builds a charge line in the default expense section.
func testBillLine(t *testing.T, date, amt, description string) model.BillLine {
	t.Helper()
	return model.BillLine{
		Section:     "消费明细",
		TransDate:   day(t, date),
		CardSuffix:  "4101",
		Amount:      amount(t, amt),
		Description: description,
	}
}

func testEngine(pool *detail.Pool, source model.SourceKind) *Engine {
	return NewEngine(pool, detail.NewCardAliasResolver(nil), DefaultConfig(), source)
}
