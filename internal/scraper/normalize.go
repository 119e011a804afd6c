package scraper

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"
	"upperlimit/internal/utils"
	"upperlimit/models"

	"github.com/shopspring/decimal"
)

// TradeDateLayout is the trade_date format.
const TradeDateLayout = "20060102"

// CleanNumber strips spaces and thousands separators.
func CleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

// CleanPercent additionally drops "+" and "%". A leading "-" is kept.
func CleanPercent(s string) string {
	s = CleanNumber(s)
	s = strings.ReplaceAll(s, "+", "")
	return strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
}

// ParseDecimal returns a null value when s is not a number.
func ParseDecimal(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// ParseInt returns a null value when s is not an integral number or does
// not fit in int64.
func ParseInt(s string) sql.NullInt64 {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.IntPart(), Valid: true}
}

// Normalizer turns market fragments into the unified table.
type Normalizer struct {
	codes  CodeLoader
	logger *utils.Logger
	now    func() time.Time
}

func NewNormalizer(codes CodeLoader, logger *utils.Logger) *Normalizer {
	return &Normalizer{
		codes:  codes,
		logger: logger,
		now:    time.Now,
	}
}

// Normalize concatenates fragments in order, stamps the trade date, joins
// stock codes and coerces numeric cells. A code directory failure leaves
// every code null instead of failing the run.
func (n *Normalizer) Normalize(ctx context.Context, fragments []Fragment) ([]models.StockRecord, error) {
	if len(fragments) == 0 {
		return nil, ErrNoData
	}

	tradeDate := n.now().Format(TradeDateLayout)

	directory, err := n.codes.Load(ctx)
	if err != nil {
		n.logger.Warn("Code directory unavailable, stock codes left empty: %v", err)
		directory = CodeDirectory{}
	}

	seen := make(map[string]struct{})
	var records []models.StockRecord
	for _, f := range fragments {
		for _, row := range f.Table.Rows {
			record := buildRecord(f.Table, row, tradeDate, directory)
			if _, dup := seen[record.StockName]; dup {
				continue
			}
			seen[record.StockName] = struct{}{}
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

func buildRecord(t Table, row []string, tradeDate string, directory CodeDirectory) models.StockRecord {
	name := t.Value(row, ColName)
	record := models.StockRecord{
		TradeDate:        tradeDate,
		N:                ParseInt(CleanNumber(t.Value(row, ColN))),
		ConsecutiveCount: ParseInt(CleanNumber(t.Value(row, ColConsecutive))),
		CumulativeCount:  ParseInt(CleanNumber(t.Value(row, ColCumulative))),
		StockName:        name,
		CurrentPrice:     ParseDecimal(CleanNumber(t.Value(row, ColPrice))),
		ChangePercent:    ParseDecimal(CleanPercent(t.Value(row, ColChange))),
		Volume:           ParseDecimal(CleanNumber(t.Value(row, ColVolume))),
		Open:             ParseDecimal(CleanNumber(t.Value(row, ColOpen))),
		High:             ParseDecimal(CleanNumber(t.Value(row, ColHigh))),
		Low:              ParseDecimal(CleanNumber(t.Value(row, ColLow))),
		PER:              ParseDecimal(CleanNumber(t.Value(row, ColPER))),
	}
	if code, ok := directory[name]; ok {
		record.StockCode = sql.NullString{String: code, Valid: true}
	}
	return record
}
