package scraper

import (
	"context"
	"errors"
	"math"
	"regexp"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func testNormalizer(loader CodeLoader, now time.Time) *Normalizer {
	n := NewNormalizer(loader, testLogger())
	n.now = func() time.Time { return now }
	return n
}

func fragmentsFrom(t *testing.T, market string, rows ...string) []Fragment {
	t.Helper()
	tables, err := ParseTables(marketPage(rows...))
	if err != nil {
		t.Fatalf("ParseTables failed: %v", err)
	}
	fragments, err := CollectFragments(market, tables, make(map[string]struct{}))
	if err != nil {
		t.Fatalf("CollectFragments failed: %v", err)
	}
	return fragments
}

func TestCleanPercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+3,210.50%", "3210.50"},
		{"-1.20%", "-1.20"},
		{"+29.97%", "29.97"},
		{" 0.00% ", "0.00"},
	}

	for _, tt := range tests {
		if got := CleanPercent(tt.in); got != tt.want {
			t.Errorf("CleanPercent(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestParseDecimalAndInt(t *testing.T) {
	if got := ParseDecimal(CleanPercent("+3,210.50%")); !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("3210.50")) {
		t.Errorf("Expected 3210.50, got %v", got)
	}
	if got := ParseDecimal(CleanPercent("-1.20%")); !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("-1.20")) {
		t.Errorf("Expected -1.20, got %v", got)
	}
	for _, bad := range []string{"", "N/A", "nan", "1.2.3"} {
		if got := ParseDecimal(bad); got.Valid {
			t.Errorf("Expected null for %q, got %v", bad, got.Decimal)
		}
	}

	if got := ParseInt(CleanNumber("1,234")); !got.Valid || got.Int64 != 1234 {
		t.Errorf("Expected 1234, got %v", got)
	}
	if got := ParseInt("1.5"); got.Valid {
		t.Errorf("Expected null for fractional value, got %d", got.Int64)
	}
	if got := ParseInt(CleanNumber("99,999,999,999,999,999,999")); got.Valid {
		t.Errorf("Expected null for out-of-range value, got %d", got.Int64)
	}
	if got := ParseInt("-9223372036854775808"); !got.Valid || got.Int64 != math.MinInt64 {
		t.Errorf("Expected MinInt64, got %v", got)
	}
}

func TestNormalizeBuildsUnifiedTable(t *testing.T) {
	fragments := append(
		fragmentsFrom(t, "KOSPI", stockRow(1, "가나전자", "12,340", "+29.97%")),
		fragmentsFrom(t, "KOSDAQ", stockRow(1, "다라바이오", "5,000", "+3,210.50%"))...,
	)
	loader := &fakeCodeLoader{directory: CodeDirectory{"가나전자": "001234"}}
	now := time.Date(2026, 10, 16, 15, 40, 0, 0, time.Local)

	records, err := testNormalizer(loader, now).Normalize(context.Background(), fragments)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	codePattern := regexp.MustCompile(`^[0-9]{6}$`)
	for _, r := range records {
		if r.TradeDate != "20261016" {
			t.Errorf("%s: expected trade date 20261016, got %s", r.StockName, r.TradeDate)
		}
		if first, _ := utf8.DecodeRuneInString(r.StockName); !IsHangulName(r.StockName) {
			t.Errorf("Expected Hangul name, got %q (%U)", r.StockName, first)
		}
		if r.StockCode.Valid && !codePattern.MatchString(r.StockCode.String) {
			t.Errorf("%s: invalid code %q", r.StockName, r.StockCode.String)
		}
	}

	first := records[0]
	if first.StockName != "가나전자" || first.StockCode.String != "001234" {
		t.Errorf("Unexpected first record: %+v", first)
	}
	if !first.CurrentPrice.Valid || first.CurrentPrice.Decimal.IntPart() != 12340 {
		t.Errorf("Expected current price 12340, got %v", first.CurrentPrice)
	}
	if !first.Volume.Valid || first.Volume.Decimal.IntPart() != 1234567 {
		t.Errorf("Expected volume 1234567, got %v", first.Volume)
	}
	if !first.N.Valid || first.N.Int64 != 1 || first.CumulativeCount.Int64 != 3 {
		t.Errorf("Unexpected rank fields: N=%v cumulative=%v", first.N, first.CumulativeCount)
	}

	second := records[1]
	if second.StockCode.Valid {
		t.Errorf("Expected null code for unknown name, got %s", second.StockCode.String)
	}
	if !second.ChangePercent.Decimal.Equal(decimal.RequireFromString("3210.5")) {
		t.Errorf("Expected change 3210.50, got %v", second.ChangePercent.Decimal)
	}
}

func TestNormalizeUnparseableNumbersBecomeNull(t *testing.T) {
	fragments := []Fragment{{
		Market: "KOSPI",
		Table: Table{
			Columns: FragmentColumns,
			Rows:    [][]string{{"가나전자", "N/A", "-", "", "9,500", "x", "9,400", "", "1", "", "2"}},
		},
	}}

	records, err := testNormalizer(&fakeCodeLoader{}, time.Now()).Normalize(context.Background(), fragments)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r := records[0]
	if r.CurrentPrice.Valid || r.ChangePercent.Valid || r.Volume.Valid || r.High.Valid || r.PER.Valid || r.ConsecutiveCount.Valid {
		t.Errorf("Expected unparseable fields to be null: %+v", r)
	}
	if !r.Open.Valid || !r.Low.Valid || !r.N.Valid || !r.CumulativeCount.Valid {
		t.Errorf("Expected parseable fields to be set: %+v", r)
	}
}

func TestNormalizeCodeDirectoryFailureKeepsRows(t *testing.T) {
	fragments := fragmentsFrom(t, "KOSPI", stockRow(1, "가나전자", "12,340", "+29.97%"))
	loader := &fakeCodeLoader{err: errors.New("krx unavailable")}

	records, err := testNormalizer(loader, time.Now()).Normalize(context.Background(), fragments)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].StockCode.Valid {
		t.Errorf("Expected one row with null code, got %+v", records)
	}
}

func TestNormalizeDeduplicatesAcrossFragments(t *testing.T) {
	fragments := append(
		fragmentsFrom(t, "KOSPI", stockRow(1, "가나전자", "12,340", "+29.97%")),
		fragmentsFrom(t, "KOSDAQ", stockRow(1, "가나전자", "1,000", "+30.00%"))...,
	)

	records, err := testNormalizer(&fakeCodeLoader{}, time.Now()).Normalize(context.Background(), fragments)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].CurrentPrice.Decimal.IntPart() != 12340 {
		t.Errorf("Expected first occurrence only, got %+v", records)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	loader := &fakeCodeLoader{}

	if _, err := testNormalizer(loader, time.Now()).Normalize(context.Background(), nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if loader.calls != 0 {
		t.Errorf("Expected code directory not to be loaded for empty input, got %d calls", loader.calls)
	}
}
