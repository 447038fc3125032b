package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/linqiu/onebill/internal/config"
	"github.com/linqiu/onebill/internal/detail"
	"github.com/linqiu/onebill/internal/match"
	"github.com/linqiu/onebill/internal/model"
	"github.com/linqiu/onebill/internal/storage"
	"github.com/linqiu/onebill/internal/tabular"
	"github.com/linqiu/onebill/internal/unify"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match bills and statements against wallet exports and build the unified ledger",
		Long: `Reconcile runs the full matching pipeline for one batch of inputs:

  onebill reconcile --alipay alipay.csv --wechat wechat.csv \
      --bill card_bill.csv --bank bank_statement.csv --out ./out

At least one wallet export and at least one of --bill/--bank are
required. Outputs per bill-side source: *.enriched.csv, *.unmatched.csv,
*.match_debug.csv and a combined *.workbook.xlsx, plus the merged
unified.csv carrying match_group_id for the finalize stage.`,
		RunE: runReconcile,
	}

	cmd.Flags().String("alipay", "", "normalized Alipay export CSV")
	cmd.Flags().String("wechat", "", "normalized WeChat Pay export CSV")
	cmd.Flags().String("bill", "", "extracted credit-card bill CSV")
	cmd.Flags().String("bank", "", "extracted bank statement CSV")
	cmd.Flags().StringP("out", "o", ".", "output directory")
	cmd.Flags().String("db", "", "optional SQLite audit database path")

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	alipayPath, _ := cmd.Flags().GetString("alipay")
	wechatPath, _ := cmd.Flags().GetString("wechat")
	billPath, _ := cmd.Flags().GetString("bill")
	bankPath, _ := cmd.Flags().GetString("bank")
	outDir, _ := cmd.Flags().GetString("out")
	dbPath, _ := cmd.Flags().GetString("db")

	if alipayPath == "" && wechatPath == "" {
		return fmt.Errorf("at least one wallet export is required (--alipay or --wechat)")
	}
	if billPath == "" && bankPath == "" {
		return fmt.Errorf("nothing to reconcile: supply --bill and/or --bank")
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cfg, err := config.MatchingConfig()
	if err != nil {
		return err
	}
	aliases := detail.NewCardAliasResolver(config.CardAliases())

	pool, err := loadPool(alipayPath, wechatPath)
	if err != nil {
		return err
	}
	slog.Info("Loaded wallet detail pool",
		"records", pool.Len(),
		"matchable", len(pool.MatchableIndexes()))

	// One MatchingState for the whole run: a detail record consumed by
	// the credit-card stage is off the table for the bank stage too.
	state := match.NewState()

	var (
		cardLines    []model.BillLine
		cardOutcomes []model.MatchOutcome
		bankLines    []model.StatementLine
		bankOutcomes []model.MatchOutcome
	)

	if billPath != "" {
		cardLines, err = tabular.ReadCardBill(billPath)
		if err != nil {
			return err
		}
		cardOutcomes = matchCardLines(pool, aliases, cfg, cardLines, state)
		if err := writeCardOutputs(outDir, billPath, pool, cardLines, cardOutcomes); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if bankPath != "" {
		bankLines, err = tabular.ReadStatement(bankPath)
		if err != nil {
			return err
		}
		bankOutcomes = matchBankLines(pool, aliases, cfg, bankLines, state)
		if err := writeBankOutputs(outDir, bankPath, pool, bankLines, bankOutcomes); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	ledger := buildLedger(pool, cardLines, cardOutcomes, bankLines, bankOutcomes)
	unifiedPath := filepath.Join(outDir, "unified.csv")
	if err := tabular.WriteCSV(unifiedPath, tabular.UnifiedTable(ledger)); err != nil {
		return err
	}

	slog.Info("Reconciliation complete",
		"card_lines", len(cardLines),
		"card_matched", countMatched(cardOutcomes),
		"bank_lines", len(bankLines),
		"bank_matched", countMatched(bankOutcomes),
		"ledger_rows", len(ledger),
		"unified", unifiedPath)

	if dbPath != "" {
		if err := persistRun(ctx, dbPath, pool, cardOutcomes, bankOutcomes, ledger); err != nil {
			return err
		}
	}
	return nil
}

func loadPool(alipayPath, wechatPath string) (*detail.Pool, error) {
	var alipay, wechat []model.DetailRecord
	var err error

	if alipayPath != "" {
		if alipay, err = tabular.ReadWallet(alipayPath, model.ChannelAlipay); err != nil {
			return nil, err
		}
	}
	if wechatPath != "" {
		if wechat, err = tabular.ReadWallet(wechatPath, model.ChannelWechat); err != nil {
			return nil, err
		}
	}
	return detail.NewPool(alipay, wechat), nil
}

func matchCardLines(pool *detail.Pool, aliases *detail.CardAliasResolver, cfg match.Config, lines []model.BillLine, state *match.MatchingState) []model.MatchOutcome {
	engine := match.NewEngine(pool, aliases, cfg, model.SourceCreditCard)
	bar := progressbar.Default(int64(len(lines)), "matching card bill")

	outcomes := make([]model.MatchOutcome, len(lines))
	for i, line := range lines {
		outcomes[i] = engine.MatchBillLine(line, state)
		_ = bar.Add(1)
	}
	return outcomes
}

func matchBankLines(pool *detail.Pool, aliases *detail.CardAliasResolver, cfg match.Config, lines []model.StatementLine, state *match.MatchingState) []model.MatchOutcome {
	engine := match.NewEngine(pool, aliases, cfg, model.SourceBank)
	bar := progressbar.Default(int64(len(lines)), "matching bank statement")

	outcomes := make([]model.MatchOutcome, len(lines))
	for i, line := range lines {
		outcomes[i] = engine.MatchStatementLine(line, state)
		_ = bar.Add(1)
	}
	return outcomes
}

func writeCardOutputs(outDir, inputPath string, pool *detail.Pool, lines []model.BillLine, outcomes []model.MatchOutcome) error {
	base := outputBase(inputPath)
	enriched, unmatched := tabular.CardTables(pool, lines, outcomes)

	entries := make([]tabular.DebugEntry, len(lines))
	for i := range lines {
		entries[i] = tabular.CardDebugEntry(i+1, lines[i], outcomes[i])
	}

	return writeSourceOutputs(outDir, base, enriched, unmatched, tabular.DebugTable(pool, entries))
}

func writeBankOutputs(outDir, inputPath string, pool *detail.Pool, lines []model.StatementLine, outcomes []model.MatchOutcome) error {
	base := outputBase(inputPath)
	enriched, unmatched := tabular.BankTables(pool, lines, outcomes)

	entries := make([]tabular.DebugEntry, len(lines))
	for i := range lines {
		entries[i] = tabular.BankDebugEntry(i+1, lines[i], outcomes[i])
	}

	return writeSourceOutputs(outDir, base, enriched, unmatched, tabular.DebugTable(pool, entries))
}

func writeSourceOutputs(outDir, base string, enriched, unmatched, debug [][]string) error {
	if err := tabular.WriteCSV(filepath.Join(outDir, base+".enriched.csv"), enriched); err != nil {
		return err
	}
	if err := tabular.WriteCSV(filepath.Join(outDir, base+".unmatched.csv"), unmatched); err != nil {
		return err
	}
	if err := tabular.WriteCSV(filepath.Join(outDir, base+".match_debug.csv"), debug); err != nil {
		return err
	}
	return tabular.WriteWorkbook(filepath.Join(outDir, base+".workbook.xlsx"), enriched, unmatched)
}

func buildLedger(pool *detail.Pool, cardLines []model.BillLine, cardOutcomes []model.MatchOutcome, bankLines []model.StatementLine, bankOutcomes []model.MatchOutcome) []model.UnifiedRow {
	cards := make([]unify.CardResult, len(cardLines))
	for i := range cardLines {
		cards[i] = unify.CardResult{Line: cardLines[i], Outcome: cardOutcomes[i]}
	}
	banks := make([]unify.BankResult, len(bankLines))
	for i := range bankLines {
		banks[i] = unify.BankResult{Line: bankLines[i], Outcome: bankOutcomes[i]}
	}

	ledger := unify.NewBuilder(pool).Build(cards, banks)
	return unify.ShadowDedup(ledger)
}

func persistRun(ctx context.Context, dbPath string, pool *detail.Pool, cardOutcomes, bankOutcomes []model.MatchOutcome, ledger []model.UnifiedRow) error {
	store, err := storage.NewSQLiteStore(config.ExpandPath(dbPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run := storage.RunRecord{
		Summary: storage.RunSummary{
			ID:          uuid.NewString(),
			CreatedAt:   time.Now().UTC(),
			CardTotal:   len(cardOutcomes),
			CardMatched: countMatched(cardOutcomes),
			BankTotal:   len(bankOutcomes),
			BankMatched: countMatched(bankOutcomes),
			LedgerRows:  len(ledger),
		},
	}
	run.Outcomes = append(run.Outcomes, outcomeRecords(pool, model.SourceCreditCard, cardOutcomes)...)
	run.Outcomes = append(run.Outcomes, outcomeRecords(pool, model.SourceBank, bankOutcomes)...)

	for i := range ledger {
		r := &ledger[i]
		run.Ledger = append(run.Ledger, storage.LedgerRecord{
			RowNo:        i + 1,
			TradeDate:    r.TradeDate.Format("2006-01-02"),
			TradeTime:    r.TradeTime.Format("2006-01-02 15:04:05"),
			Account:      r.Account,
			Amount:       r.Amount.String(),
			Flow:         string(r.Flow),
			Merchant:     r.Merchant,
			MatchStatus:  string(r.MatchStatus),
			MatchGroupID: r.MatchGroupID,
		})
	}

	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	slog.Info("Run persisted to audit store", "run_id", run.Summary.ID, "db", dbPath)
	return nil
}

func outcomeRecords(pool *detail.Pool, source model.SourceKind, outcomes []model.MatchOutcome) []storage.OutcomeRecord {
	records := make([]storage.OutcomeRecord, 0, len(outcomes))
	for i, o := range outcomes {
		var tradeNos []string
		for _, idx := range o.DetailIndexes {
			if no := pool.Record(idx).TradeNo; no != "" {
				tradeNos = append(tradeNos, no)
			}
		}
		records = append(records, storage.OutcomeRecord{
			Source:          string(source),
			LineNo:          i + 1,
			Status:          string(o.Status),
			Method:          string(o.Method),
			Confidence:      o.Confidence,
			MatchedTradeNos: strings.Join(tradeNos, ";"),
		})
	}
	return records
}

func countMatched(outcomes []model.MatchOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status.Matched() {
			n++
		}
	}
	return n
}

func outputBase(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
