package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linqiu/onebill/internal/common"
	"github.com/linqiu/onebill/internal/model"
)

// Accepted layouts for date and datetime columns in input files.
var (
	dateLayouts     = []string{"2006-01-02", "2006/01/02", "20060102"}
	dateTimeLayouts = []string{"2006-01-02 15:04:05", "2006/01/02 15:04:05", "2006-01-02T15:04:05"}
)

// ReadWallet reads a normalized wallet export for one channel.
func ReadWallet(path string, channel model.Channel) ([]model.DetailRecord, error) {
	rows, idx, err := readTable(path, KindWallet)
	if err != nil {
		return nil, err
	}

	records := make([]model.DetailRecord, 0, len(rows))
	for n, row := range rows {
		tradeTime, err := parseDateTime(row[idx["trade_time"]])
		if err != nil {
			return nil, rowErr(path, n, "trade_time", err)
		}
		amount, err := parseAmount(row[idx["amount"]])
		if err != nil {
			return nil, rowErr(path, n, "amount", err)
		}

		records = append(records, model.DetailRecord{
			TradeTime:    tradeTime,
			Date:         dayOf(tradeTime),
			Channel:      channel,
			Direction:    model.ParseDirection(row[idx["direction"]]),
			Amount:       amount,
			Counterparty: strings.TrimSpace(row[idx["counterparty"]]),
			Item:         strings.TrimSpace(row[idx["item"]]),
			TradeNo:      strings.TrimSpace(row[idx["trade_no"]]),
			MerchantNo:   strings.TrimSpace(row[idx["merchant_no"]]),
			Status:       strings.TrimSpace(row[idx["status"]]),
			Category:     strings.TrimSpace(row[idx["category"]]),
			PayMethod:    strings.TrimSpace(row[idx["pay_method"]]),
			Remark:       strings.TrimSpace(row[idx["remark"]]),
		})
	}
	return records, nil
}

// ReadCardBill reads an extracted credit-card bill.
func ReadCardBill(path string) ([]model.BillLine, error) {
	rows, idx, err := readTable(path, KindCardBill)
	if err != nil {
		return nil, err
	}

	lines := make([]model.BillLine, 0, len(rows))
	for n, row := range rows {
		transDate, err := parseOptionalDate(row[idx["trans_date"]])
		if err != nil {
			return nil, rowErr(path, n, "trans_date", err)
		}
		postDate, err := parseOptionalDate(row[idx["post_date"]])
		if err != nil {
			return nil, rowErr(path, n, "post_date", err)
		}
		amount, err := parseAmount(row[idx["amount"]])
		if err != nil {
			return nil, rowErr(path, n, "amount", err)
		}

		lines = append(lines, model.BillLine{
			Section:     strings.TrimSpace(row[idx["section"]]),
			TransDate:   transDate,
			PostDate:    postDate,
			CardSuffix:  strings.TrimSpace(row[idx["card_suffix"]]),
			Amount:      amount,
			Description: strings.TrimSpace(row[idx["description"]]),
		})
	}
	return lines, nil
}

// ReadStatement reads an extracted bank statement.
func ReadStatement(path string) ([]model.StatementLine, error) {
	rows, idx, err := readTable(path, KindStatement)
	if err != nil {
		return nil, err
	}

	lines := make([]model.StatementLine, 0, len(rows))
	for n, row := range rows {
		transDate, err := parseOptionalDate(row[idx["trans_date"]])
		if err != nil {
			return nil, rowErr(path, n, "trans_date", err)
		}
		amount, err := parseAmount(row[idx["amount"]])
		if err != nil {
			return nil, rowErr(path, n, "amount", err)
		}

		lines = append(lines, model.StatementLine{
			TransDate:     transDate,
			Summary:       strings.TrimSpace(row[idx["summary"]]),
			Counterparty:  strings.TrimSpace(row[idx["counterparty"]]),
			AccountSuffix: strings.TrimSpace(row[idx["account_suffix"]]),
			Amount:        amount,
		})
	}
	return lines, nil
}

// readTable reads a CSV file and validates its header against the kind.
func readTable(path string, kind FileKind) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, common.NewUserError(fmt.Sprintf("%s: %s", path, kind), common.ErrEmptyInput)
	}

	idx, err := columnIndex(all[0], kind)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return all[1:], idx, nil
}

// parseAmount parses money text as an exact decimal. Failure is fatal
// for the whole stage: money must never degrade to a best-effort zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "¥")
	if s == "" {
		return decimal.Decimal{}, common.ErrBadAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", common.ErrBadAmount, s)
	}
	return d, nil
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	// A bare date is acceptable where a datetime is expected.
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrBadDate, s)
}

// parseOptionalDate parses a date column that may legitimately be
// empty (e.g. post_date). Empty yields the zero time, not an error.
func parseOptionalDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrBadDate, s)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func rowErr(path string, row int, column string, err error) error {
	// +2: one for the header, one for 1-based numbering.
	return fmt.Errorf("%s row %d column %s: %w", path, row+2, column, err)
}
