package export

import (
	"fmt"
	"strings"
	"upperlimit/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "upper_limit"

// XLSXPath returns the sidecar path for a CSV file.
func XLSXPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".xlsx"
}

// WriteXLSX writes records to a workbook with the same columns as the CSV.
// Numeric cells are stored as numbers, nulls as empty cells.
func WriteXLSX(path string, records []models.StockRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(models.Columns))
	for i, c := range models.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(record)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", record.StockName, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func xlsxRow(r models.StockRecord) []interface{} {
	row := make([]interface{}, 0, len(models.Columns))
	row = append(row, r.TradeDate)
	for _, v := range []struct {
		n     int64
		valid bool
	}{
		{r.N.Int64, r.N.Valid},
		{r.ConsecutiveCount.Int64, r.ConsecutiveCount.Valid},
		{r.CumulativeCount.Int64, r.CumulativeCount.Valid},
	} {
		if v.valid {
			row = append(row, v.n)
		} else {
			row = append(row, nil)
		}
	}
	row = append(row, r.StockCode.String, r.StockName)
	for _, d := range r.Numerics() {
		if d.Valid {
			f, _ := d.Decimal.Float64()
			row = append(row, f)
		} else {
			row = append(row, nil)
		}
	}
	return row
}
