// Package tabular reads and writes the engine's column-exact CSV
// tables and the combined xlsx workbook. Input schemas are strict: a
// file missing required columns is rejected outright, because an
// unexpected schema usually means the wrong file type was supplied.
package tabular

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linqiu/onebill/internal/common"
)

// FileKind names an input table schema.
type FileKind string

const (
	// KindWallet is a normalized wallet export (Alipay or WeChat).
	KindWallet FileKind = "wallet export"
	// KindCardBill is an extracted credit-card bill.
	KindCardBill FileKind = "credit-card bill"
	// KindStatement is an extracted bank statement.
	KindStatement FileKind = "bank statement"
)

// requiredColumns lists the exact column set each file kind must carry.
var requiredColumns = map[FileKind][]string{
	KindWallet: {
		"trade_time", "trade_no", "merchant_no", "counterparty", "item",
		"direction", "amount", "pay_method", "status", "category", "remark",
	},
	KindCardBill: {
		"section", "trans_date", "post_date", "card_suffix", "description", "amount",
	},
	KindStatement: {
		"trans_date", "summary", "counterparty", "account_suffix", "amount",
	},
}

// suggestedCommand maps a file kind to the command that consumes it,
// for the wrong-file-kind hint.
var suggestedCommand = map[FileKind]string{
	KindWallet:    "pass it via --alipay or --wechat",
	KindCardBill:  "pass it via --bill",
	KindStatement: "pass it via --bank",
}

// columnIndex maps header names to their positions after validating
// that every required column for the kind is present. When columns are
// missing and the header resembles a different kind, the error says
// which stage to run instead.
func columnIndex(headers []string, kind FileKind) (map[string]int, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, col := range requiredColumns[kind] {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return idx, nil
	}
	sort.Strings(missing)

	msg := fmt.Sprintf("%s is missing columns: %s", kind, strings.Join(missing, ", "))
	if other, ok := resemblesOtherKind(idx, kind); ok {
		msg += fmt.Sprintf(" (the headers look like a %s; %s)", other, suggestedCommand[other])
	}
	return nil, common.NewUserError(msg, common.ErrMissingColumns)
}

// resemblesOtherKind checks whether the supplied headers cover most of
// another kind's required columns.
func resemblesOtherKind(idx map[string]int, kind FileKind) (FileKind, bool) {
	for other, cols := range requiredColumns {
		if other == kind {
			continue
		}
		present := 0
		for _, col := range cols {
			if _, ok := idx[col]; ok {
				present++
			}
		}
		if present*5 >= len(cols)*4 { // at least 80% of the other schema
			return other, true
		}
	}
	return "", false
}
