package detail

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linqiu/onebill/internal/model"
)

func TestExtractCardSuffix(t *testing.T) {
	tests := []struct {
		name      string
		payMethod string
		want      string
	}{
		{
			name:      "debit card half-width parens",
			payMethod: "招商银行储蓄卡(4101)",
			want:      "4101",
		},
		{
			name:      "credit card full-width parens",
			payMethod: "中国银行信用卡（1234）",
			want:      "1234",
		},
		{
			name:      "three digit suffix",
			payMethod: "建设银行借记卡(886)",
			want:      "886",
		},
		{
			name:      "balance wallet has no card",
			payMethod: "零钱",
			want:      "",
		},
		{
			name:      "digits without card marker",
			payMethod: "账户(4101)",
			want:      "",
		},
		{
			name:      "empty",
			payMethod: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCardSuffix(tt.payMethod))
		})
	}
}

func TestNewPoolOrderAndSuffixes(t *testing.T) {
	alipay := []model.DetailRecord{
		{Channel: model.ChannelAlipay, TradeNo: "a1", PayMethod: "招商银行储蓄卡(4101)"},
		{Channel: model.ChannelAlipay, TradeNo: "a2", PayMethod: "余额"},
	}
	wechat := []model.DetailRecord{
		{Channel: model.ChannelWechat, TradeNo: "w1", PayMethod: "工商银行信用卡(9921)"},
	}

	pool := NewPool(alipay, wechat)
	require.Equal(t, 3, pool.Len())

	// Channel A precedes channel B, file order preserved.
	assert.Equal(t, "a1", pool.Record(0).TradeNo)
	assert.Equal(t, "a2", pool.Record(1).TradeNo)
	assert.Equal(t, "w1", pool.Record(2).TradeNo)

	assert.Equal(t, "4101", pool.Record(0).CardSuffix)
	assert.Equal(t, "", pool.Record(1).CardSuffix)
	assert.Equal(t, "9921", pool.Record(2).CardSuffix)

	// Records without a card suffix stay in the pool but are not matchable.
	assert.Equal(t, []int{0, 2}, pool.MatchableIndexes())
}

func TestNewPoolKeepsExistingSuffix(t *testing.T) {
	rows := []model.DetailRecord{
		{CardSuffix: "7777", PayMethod: "招商银行储蓄卡(4101)"},
	}
	pool := NewPool(rows)
	assert.Equal(t, "7777", pool.Record(0).CardSuffix)
}

func TestPoolRecordsReadOnlyView(t *testing.T) {
	now := time.Now()
	pool := NewPool([]model.DetailRecord{{
		TradeTime: now,
		Amount:    decimal.RequireFromString("-3.57"),
	}})
	records := pool.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("-3.57")))
}
