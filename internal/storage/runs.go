package storage

import (
	"context"
	"fmt"
	"time"
)

// RunSummary is the per-run header row.
type RunSummary struct {
	ID          string
	CreatedAt   time.Time
	CardTotal   int
	CardMatched int
	BankTotal   int
	BankMatched int
	LedgerRows  int
}

// OutcomeRecord is one persisted match outcome.
type OutcomeRecord struct {
	Source          string
	LineNo          int
	Status          string
	Method          string
	Confidence      float64
	MatchedTradeNos string
}

// LedgerRecord is one persisted unified ledger row.
type LedgerRecord struct {
	RowNo        int
	TradeDate    string
	TradeTime    string
	Account      string
	Amount       string
	Flow         string
	Merchant     string
	MatchStatus  string
	MatchGroupID string
}

// RunRecord is a complete run ready for persistence.
type RunRecord struct {
	Summary  RunSummary
	Outcomes []OutcomeRecord
	Ledger   []LedgerRecord
}

// SaveRun persists a run atomically.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, card_total, card_matched, bank_total, bank_matched, ledger_rows)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Summary.ID, run.Summary.CreatedAt, run.Summary.CardTotal, run.Summary.CardMatched,
		run.Summary.BankTotal, run.Summary.BankMatched, run.Summary.LedgerRows)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	outcomeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outcomes (run_id, source, line_no, status, method, confidence, matched_trade_nos)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome statement: %w", err)
	}
	defer func() { _ = outcomeStmt.Close() }()

	for _, o := range run.Outcomes {
		if _, err := outcomeStmt.ExecContext(ctx, run.Summary.ID, o.Source, o.LineNo, o.Status, o.Method, o.Confidence, o.MatchedTradeNos); err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	ledgerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger (run_id, row_no, trade_date, trade_time, account, amount, flow, merchant, match_status, match_group_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger statement: %w", err)
	}
	defer func() { _ = ledgerStmt.Close() }()

	for _, l := range run.Ledger {
		if _, err := ledgerStmt.ExecContext(ctx, run.Summary.ID, l.RowNo, l.TradeDate, l.TradeTime, l.Account, l.Amount, l.Flow, l.Merchant, l.MatchStatus, l.MatchGroupID); err != nil {
			return fmt.Errorf("failed to insert ledger row: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, card_total, card_matched, bank_total, bank_matched, ledger_rows
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.CardTotal, &r.CardMatched, &r.BankTotal, &r.BankMatched, &r.LedgerRows); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
