package scraper

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"unicode/utf8"
	"upperlimit/internal/utils"
)

// ErrNoData means no market segment yielded any row.
var ErrNoData = errors.New("no data collected")

// Column labels used on the market pages.
const (
	ColName        = "종목명"
	ColPrice       = "현재가"
	ColChange      = "등락률"
	ColVolume      = "거래량"
	ColOpen        = "시가"
	ColHigh        = "고가"
	ColLow         = "저가"
	ColPER         = "PER"
	ColN           = "N"
	ColConsecutive = "연속"
	ColCumulative  = "누적"
)

// FragmentColumns is the column set kept from every market table.
var FragmentColumns = []string{
	ColName, ColPrice, ColChange, ColVolume,
	ColOpen, ColHigh, ColLow, ColPER,
	ColN, ColConsecutive, ColCumulative,
}

// Fragment is the filtered part of one stock table from one market page.
type Fragment struct {
	Market string
	Table  Table
}

// IsStockTable reports whether t looks like a stock listing rather than a
// layout or navigation table.
func IsStockTable(t Table) bool {
	return len(t.Columns) > 4 && t.Index(ColName) >= 0
}

// IsHangulName reports whether name starts with a Hangul syllable.
func IsHangulName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r >= 0xAC00 && r <= 0xD7A3
}

// FilterRows keeps rows with a Hangul stock name not present in seen and
// adds every kept name to seen.
func FilterRows(t Table, seen map[string]struct{}) Table {
	out := Table{Columns: t.Columns}
	nameIdx := t.Index(ColName)
	if nameIdx < 0 {
		return out
	}
	for _, row := range t.Rows {
		if nameIdx >= len(row) {
			continue
		}
		name := row[nameIdx]
		if name == "" || !IsHangulName(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// CollectFragments selects the stock tables of one market page, filters
// their rows and projects them onto FragmentColumns. Names are committed to
// seen only when the whole page succeeds.
func CollectFragments(market string, tables []Table, seen map[string]struct{}) ([]Fragment, error) {
	local := maps.Clone(seen)
	if local == nil {
		local = make(map[string]struct{})
	}

	var fragments []Fragment
	for _, t := range tables {
		if !IsStockTable(t) {
			continue
		}
		kept := FilterRows(t, local)
		if len(kept.Rows) == 0 {
			continue
		}
		projected, err := kept.Project(FragmentColumns)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, Fragment{Market: market, Table: projected})
	}

	maps.Copy(seen, local)
	return fragments, nil
}

// SnapshotFetcher collects the limit-up tables of every configured market.
type SnapshotFetcher struct {
	fetcher Fetcher
	markets []utils.Source
	logger  *utils.Logger
	perf    *utils.PerformanceTracker
}

func NewSnapshotFetcher(fetcher Fetcher, markets []utils.Source, logger *utils.Logger, perf *utils.PerformanceTracker) *SnapshotFetcher {
	return &SnapshotFetcher{
		fetcher: fetcher,
		markets: markets,
		logger:  logger,
		perf:    perf,
	}
}

// FetchAll visits markets in order. A failing market is logged and skipped;
// ErrNoData is returned when none produced a row.
func (s *SnapshotFetcher) FetchAll(ctx context.Context) ([]Fragment, error) {
	seen := make(map[string]struct{})
	var fragments []Fragment

	for _, market := range s.markets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var got []Fragment
		err := s.perf.Track(market.Name, func() error {
			var err error
			got, err = s.fetchMarket(ctx, market, seen)
			return err
		})
		if err != nil {
			s.logger.Error("Failed to collect %s: %v", market.Name, err)
			continue
		}

		rows := 0
		for _, f := range got {
			rows += len(f.Table.Rows)
		}
		s.logger.Info("Collected %d rows from %s", rows, market.Name)
		fragments = append(fragments, got...)
	}

	if len(fragments) == 0 {
		return nil, ErrNoData
	}
	return fragments, nil
}

func (s *SnapshotFetcher) fetchMarket(ctx context.Context, market utils.Source, seen map[string]struct{}) ([]Fragment, error) {
	html, err := s.fetcher.Fetch(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	tables, err := ParseTables(html)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Parsed %d tables from %s", len(tables), market.Name)
	return CollectFragments(market.Name, tables, seen)
}
