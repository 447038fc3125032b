package tabular

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/model"
)

func testPool(t *testing.T) *detail.Pool {
	t.Helper()
	d := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	return detail.NewPool([]model.DetailRecord{
		{
			TradeTime:    d.Add(9 * time.Hour),
			Date:         d,
			Channel:      model.ChannelAlipay,
			Direction:    model.DirectionExpense,
			Amount:       decimal.NewFromFloat(-3.57),
			CardSuffix:   "4101",
			Counterparty: "星巴克",
			Item:         "拿铁",
			PayMethod:    "招商银行信用卡(4101)",
			TradeNo:      "tn1",
			MerchantNo:   "mn1",
		},
		{
			TradeTime:  d.Add(12 * time.Hour),
			Date:       d,
			Channel:    model.ChannelWechat,
			Direction:  model.DirectionExpense,
			Amount:     decimal.NewFromFloat(-17.50),
			CardSuffix: "4101",
			TradeNo:    "tn2",
		},
	})
}

func TestCardTablesRowConservation(t *testing.T) {
	pool := testPool(t)
	lines := []model.BillLine{
		{Section: "消费明细", TransDate: time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC), CardSuffix: "4101", Amount: decimal.NewFromFloat(3.57), Description: "星巴克"},
		{Section: "消费明细", TransDate: time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), CardSuffix: "4101", Amount: decimal.NewFromFloat(99.00), Description: "未知商户"},
		{Section: "还款", TransDate: time.Date(2025, 1, 23, 0, 0, 0, 0, time.UTC), CardSuffix: "4101", Amount: decimal.NewFromFloat(-500), Description: "自动还款"},
	}
	outcomes := []model.MatchOutcome{
		{Status: model.StatusMatched, Method: model.MethodExact, Confidence: 1.0, DetailIndexes: []int{0}},
		model.Unmatched(model.StatusNoCandidate),
		model.Unmatched(model.StatusSkippedRepayment),
	}

	enriched, unmatched := CardTables(pool, lines, outcomes)

	// Headers aside, every line lands in exactly one table.
	assert.Equal(t, len(lines), len(enriched)-1+len(unmatched)-1)
	assert.Len(t, enriched, 2)
	assert.Len(t, unmatched, 3)

	for _, row := range enriched {
		assert.Len(t, row, len(cardBaseColumns)+len(matchColumns))
	}
	for _, row := range unmatched {
		assert.Len(t, row, len(cardBaseColumns)+1)
	}

	assert.Equal(t, "no_candidate", unmatched[1][len(cardBaseColumns)])
	assert.Equal(t, "skipped_repayment", unmatched[2][len(cardBaseColumns)])
}

func TestCardTablesMatchColumns(t *testing.T) {
	pool := testPool(t)
	lines := []model.BillLine{
		{Section: "消费明细", TransDate: time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC), CardSuffix: "4101", Amount: decimal.NewFromFloat(21.07), Description: "合并付款"},
	}
	outcomes := []model.MatchOutcome{
		{Status: model.StatusMatched, Method: model.MatchMethod("sum_mix_2"), Confidence: 0.792, DetailIndexes: []int{0, 1}},
	}

	enriched, _ := CardTables(pool, lines, outcomes)
	require.Len(t, enriched, 2)

	row := enriched[1]
	cols := make(map[string]string, len(row))
	header := enriched[0]
	for i, h := range header {
		cols[h] = row[i]
	}

	assert.Equal(t, "matched", cols["match_status"])
	assert.Equal(t, "sum_mix_2", cols["match_method"])
	assert.Equal(t, "0.792", cols["match_confidence"])
	assert.Len(t, cols["match_group_id"], 16)
	assert.Equal(t, "tn1;tn2", cols["matched_trade_nos"])
	assert.Equal(t, "alipay;wechat", cols["matched_channels"])
	assert.Equal(t, "星巴克", cols["detail_counterparty"])
	assert.Equal(t, "招商银行信用卡(4101)", cols["detail_pay_method"])
}

func TestBankTablesRowConservation(t *testing.T) {
	pool := testPool(t)
	lines := []model.StatementLine{
		{TransDate: time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC), Summary: "快捷支付", Counterparty: "支付宝-星巴克", AccountSuffix: "4101", Amount: decimal.NewFromFloat(-3.57)},
		{TransDate: time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC), Summary: "代发工资", Counterparty: "公司", AccountSuffix: "4101", Amount: decimal.NewFromFloat(15000)},
	}
	outcomes := []model.MatchOutcome{
		{Status: model.StatusMatched, Method: model.MethodExact, Confidence: 1.0, DetailIndexes: []int{0}},
		model.Unmatched(model.StatusNoCandidate),
	}

	enriched, unmatched := BankTables(pool, lines, outcomes)
	assert.Len(t, enriched, 2)
	assert.Len(t, unmatched, 2)
	assert.Equal(t, "代发工资", unmatched[1][1])
}

func TestUnifiedTable(t *testing.T) {
	rows := []model.UnifiedRow{
		{
			TradeTime:    time.Date(2025, 1, 21, 9, 0, 0, 0, time.UTC),
			TradeDate:    time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC),
			Account:      "信用卡(4101)",
			Amount:       decimal.NewFromFloat(-3.57),
			Flow:         model.FlowExpense,
			Merchant:     "星巴克",
			Source:       model.SourceCreditCard,
			Sources:      "credit_card+alipay",
			MatchStatus:  model.StatusMatched,
			MatchGroupID: "abcd1234abcd1234",
		},
	}

	table := UnifiedTable(rows)
	require.Len(t, table, 2)
	assert.Equal(t, unifiedColumns, table[0])
	assert.Len(t, table[1], len(unifiedColumns))
	assert.Equal(t, "2025-01-21 09:00:00", table[1][0])
	assert.Equal(t, "3.57", table[1][4])
	assert.Equal(t, "credit_card+alipay", table[1][11])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	table := [][]string{{"a", "b"}, {"1", "2"}}

	require.NoError(t, WriteCSV(path, table))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "1.000", FormatConfidence(1))
	assert.Equal(t, "0.792", FormatConfidence(0.792))
	assert.Equal(t, "0.000", FormatConfidence(0))
}
