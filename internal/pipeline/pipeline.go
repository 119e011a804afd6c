// Package pipeline runs one collection pass: fetch the market snapshots,
// normalize them into records, save the file and announce the result.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"upperlimit/internal/export"
	"upperlimit/internal/scraper"
	"upperlimit/internal/utils"
	"upperlimit/models"
)

type SnapshotSource interface {
	FetchAll(ctx context.Context) ([]scraper.Fragment, error)
}

type RecordNormalizer interface {
	Normalize(ctx context.Context, fragments []scraper.Fragment) ([]models.StockRecord, error)
}

type Persister interface {
	Save(records []models.StockRecord) (string, error)
}

// Announcer delivers the run summary. Implementations handle their own
// failures.
type Announcer interface {
	Notify(ctx context.Context, records []models.StockRecord)
}

type Pipeline struct {
	Snapshots  SnapshotSource
	Normalizer RecordNormalizer
	Persister  Persister
	WriteXLSX  bool
	Notifier   Announcer // nil disables notification
	Out        io.Writer // receives the result table; nil to skip
	Logger     *utils.Logger
	Perf       *utils.PerformanceTracker
}

type Result struct {
	Records []models.StockRecord
	Path    string
}

// Run executes the stages in order. scraper.ErrNoData is returned, unwrapped,
// when nothing was collected; nothing is saved or sent in that case.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	defer func() {
		if p.Perf != nil {
			p.Logger.Debug("Performance Report:\n%s", p.Perf.GenerateReport())
		}
	}()

	var fragments []scraper.Fragment
	err := p.Perf.Track("Fetch snapshots", func() error {
		var err error
		fragments, err = p.Snapshots.FetchAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var records []models.StockRecord
	err = p.Perf.Track("Normalize", func() error {
		var err error
		records, err = p.Normalizer.Normalize(ctx, fragments)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, scraper.ErrNoData
	}

	var path string
	err = p.Perf.Track("Save", func() error {
		var err error
		path, err = p.Persister.Save(records)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save records: %w", err)
	}
	p.Logger.Info("Saved %d upper-limit stocks to %s", len(records), path)

	if p.WriteXLSX {
		xlsxPath := export.XLSXPath(path)
		if err := export.WriteXLSX(xlsxPath, records); err != nil {
			p.Logger.Warn("Failed to write workbook: %v", err)
		} else {
			p.Logger.Info("Workbook written to %s", xlsxPath)
		}
	}

	if p.Out != nil {
		fmt.Fprintln(p.Out, export.RenderTable(records))
	}

	if p.Notifier != nil {
		p.Perf.Track("Notify", func() error {
			p.Notifier.Notify(ctx, records)
			return nil
		})
	}

	return &Result{Records: records, Path: path}, nil
}
