package export

import (
	"strings"
	"upperlimit/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// firstNumericColumn is the index of current_price in models.Columns.
const firstNumericColumn = 6

// RenderTable formats records for the terminal. Decimals are shown as
// 1,234.00 and nulls as blank cells.
func RenderTable(records []models.StockRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := r.Values()[:firstNumericColumn]
		for _, d := range r.Numerics() {
			row = append(row, FormatNumber(d))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(models.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= firstNumericColumn || (col >= 1 && col <= 3):
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// FormatNumber renders d with two decimals and thousands separators.
func FormatNumber(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	s := d.Decimal.StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + sb.String() + "." + frac
}
