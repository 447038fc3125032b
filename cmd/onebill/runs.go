package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/linqiu/onebill/internal/config"
	"github.com/linqiu/onebill/internal/service"
	"github.com/linqiu/onebill/internal/storage"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past reconciliation runs from the audit store",
		RunE:  runRuns,
	}

	cmd.Flags().String("db", "", "SQLite audit database path")
	cmd.Flags().IntP("limit", "n", 20, "number of runs to show")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	limit, _ := cmd.Flags().GetInt("limit")

	var store service.AuditStore
	store, err := storage.NewSQLiteStore(config.ExpandPath(dbPath))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tWHEN\tCARD\tBANK\tLEDGER")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d/%d\t%d\n",
			r.ID[:8],
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.CardMatched, r.CardTotal,
			r.BankMatched, r.BankTotal,
			r.LedgerRows)
	}
	return w.Flush()
}
