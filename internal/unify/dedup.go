package unify

import (
	"strings"

	"github.com/linqiu/onebill/internal/common"
	"github.com/linqiu/onebill/internal/model"
)

// ShadowDedup removes wallet-sourced ledger rows that duplicate a
// bill-side row's economic event. These escape the builder's
// consumed-record suppression when the match resolved to a different
// detail record describing the same purchase, which wallet exports
// produce for combined payments and split refunds.
// A wallet row is shadowed when a bill-side row has the same trade
// date and absolute amount and its contributing sources mention the
// wallet row's channel. The input order is preserved; dropped rows are
// logged, never silently lost.
func ShadowDedup(rows []model.UnifiedRow) []model.UnifiedRow {
	type billKey struct {
		date   string
		amount string
	}

	billSources := make(map[billKey][]string)
	for i := range rows {
		if rows[i].Source == model.SourceWallet {
			continue
		}
		if !rows[i].MatchStatus.Matched() {
			continue
		}
		k := billKey{
			date:   rows[i].TradeDate.Format("2006-01-02"),
			amount: rows[i].AbsAmount().String(),
		}
		billSources[k] = append(billSources[k], rows[i].Sources)
	}

	out := make([]model.UnifiedRow, 0, len(rows))
	for i := range rows {
		row := rows[i]
		if row.Source == model.SourceWallet {
			k := billKey{
				date:   row.TradeDate.Format("2006-01-02"),
				amount: row.AbsAmount().String(),
			}
			if shadowedBy(billSources[k], row.Sources) {
				common.LogDebug("dropping shadow duplicate", common.Fields{
					"date":    k.date,
					"amount":  k.amount,
					"channel": row.Sources,
				})
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

// shadowedBy reports whether any bill-side source list mentions the
// wallet row's channel.
func shadowedBy(billSourceLists []string, channel string) bool {
	for _, sources := range billSourceLists {
		if strings.Contains(sources, channel) {
			return true
		}
	}
	return false
}
