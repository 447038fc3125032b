package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRun(id string, createdAt time.Time) RunRecord {
	return RunRecord{
		Summary: RunSummary{
			ID:          id,
			CreatedAt:   createdAt,
			CardTotal:   10,
			CardMatched: 8,
			BankTotal:   5,
			BankMatched: 3,
			LedgerRows:  14,
		},
		Outcomes: []OutcomeRecord{
			{Source: "credit_card", LineNo: 1, Status: "matched", Method: "exact", Confidence: 1.0, MatchedTradeNos: "tn1"},
			{Source: "credit_card", LineNo: 2, Status: "no_candidate"},
			{Source: "bank", LineNo: 1, Status: "matched", Method: "sum_2", Confidence: 0.88, MatchedTradeNos: "tn2;tn3"},
		},
		Ledger: []LedgerRecord{
			{RowNo: 1, TradeDate: "2025-01-21", Account: "信用卡(4101)", Amount: "3.57", Flow: "expense", Merchant: "星巴克", MatchStatus: "matched", MatchGroupID: "abcd1234abcd1234"},
		},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, testRun("run-1", base)))
	require.NoError(t, store.SaveRun(ctx, testRun("run-2", base.Add(time.Hour))))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 8, runs[0].CardMatched)
	assert.Equal(t, 14, runs[0].LedgerRows)
}

func TestListRunsHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := testRun(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveRun(ctx, run))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "e", runs[0].ID)
}

func TestSaveRunDuplicateIDFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := testRun("run-1", time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, run))
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
