// Package models defines the data structures used in the application.
package models

import (
	"database/sql"
	"strconv"

	"github.com/shopspring/decimal"
)

// Columns is the fixed column order of the unified table and the output file.
var Columns = []string{
	"trade_date",
	"N",
	"consecutive_count",
	"cumulative_count",
	"stock_code",
	"stock_name",
	"current_price",
	"change_percent",
	"volume",
	"open",
	"high",
	"low",
	"price_earnings_ratio",
}

// StockRecord is one row of the unified upper-limit table.
type StockRecord struct {
	TradeDate        string
	N                sql.NullInt64
	ConsecutiveCount sql.NullInt64 // consecutive limit-up days
	CumulativeCount  sql.NullInt64
	StockCode        sql.NullString // null when the code directory has no entry
	StockName        string
	CurrentPrice     decimal.NullDecimal
	ChangePercent    decimal.NullDecimal
	Volume           decimal.NullDecimal
	Open             decimal.NullDecimal
	High             decimal.NullDecimal
	Low              decimal.NullDecimal
	PER              decimal.NullDecimal
}

// Numerics returns the decimal fields from current_price to
// price_earnings_ratio in column order.
func (r StockRecord) Numerics() []decimal.NullDecimal {
	return []decimal.NullDecimal{r.CurrentPrice, r.ChangePercent, r.Volume, r.Open, r.High, r.Low, r.PER}
}

// Values returns the record as strings in Columns order. Nulls are empty.
func (r StockRecord) Values() []string {
	values := []string{
		r.TradeDate,
		formatInt(r.N),
		formatInt(r.ConsecutiveCount),
		formatInt(r.CumulativeCount),
		r.StockCode.String,
		r.StockName,
	}
	for _, d := range r.Numerics() {
		values = append(values, formatDecimal(d))
	}
	return values
}

func formatInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func formatDecimal(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
