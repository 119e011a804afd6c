package scraper

import (
	"context"
	"fmt"
	"strings"
	"upperlimit/internal/utils"
)

const (
	colCompany = "회사명"
	colCode    = "종목코드"

	// CodeWidth is the fixed width of an exchange stock code.
	CodeWidth = 6
)

// CodeDirectory maps a company display name to its stock code.
type CodeDirectory map[string]string

// CodeLoader builds a fresh CodeDirectory.
type CodeLoader interface {
	Load(ctx context.Context) (CodeDirectory, error)
}

// PadCode left-pads a stock code with zeros to CodeWidth.
func PadCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= CodeWidth {
		return code
	}
	return strings.Repeat("0", CodeWidth-len(code)) + code
}

// Merge adds the name/code pairs of t. Later entries overwrite earlier ones.
func (d CodeDirectory) Merge(t Table) error {
	nameIdx, codeIdx := t.Index(colCompany), t.Index(colCode)
	if nameIdx < 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, colCompany)
	}
	if codeIdx < 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, colCode)
	}
	for _, row := range t.Rows {
		name, code := row[nameIdx], row[codeIdx]
		if name == "" || code == "" {
			continue
		}
		d[name] = PadCode(code)
	}
	return nil
}

// CodeDirectoryLoader downloads the exchange listing pages.
type CodeDirectoryLoader struct {
	fetcher Fetcher
	sources []utils.Source
	logger  *utils.Logger
}

func NewCodeDirectoryLoader(fetcher Fetcher, sources []utils.Source, logger *utils.Logger) *CodeDirectoryLoader {
	return &CodeDirectoryLoader{
		fetcher: fetcher,
		sources: sources,
		logger:  logger,
	}
}

// Load fetches every source in order; any failure aborts the load.
func (l *CodeDirectoryLoader) Load(ctx context.Context) (CodeDirectory, error) {
	directory := make(CodeDirectory)
	for _, src := range l.sources {
		html, err := l.fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("code directory %s: %w", src.Name, err)
		}
		tables, err := ParseTables(html)
		if err != nil {
			return nil, fmt.Errorf("code directory %s: %w", src.Name, err)
		}
		if len(tables) == 0 {
			return nil, fmt.Errorf("code directory %s: no table found", src.Name)
		}
		if err := directory.Merge(tables[0]); err != nil {
			return nil, fmt.Errorf("code directory %s: %w", src.Name, err)
		}
	}
	l.logger.Debug("Loaded %d stock codes", len(directory))
	return directory, nil
}
