package main

import (
	"strconv"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/royalties"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

const selectedMarker = "*"

// renderPage draws the visible rows of a dashboard table. The leading column marks
// selected rows; columns the schema flags as numeric are right-aligned.
func renderPage(page views.Page) string {
	if len(page.Columns) == 0 {
		return ""
	}
	tw := newTableWriter()

	header := table.Row{""}
	for _, title := range page.Columns {
		header = append(header, title)
	}
	tw.AppendHeader(header)

	for _, row := range page.Rows {
		cells := make(table.Row, 1, len(page.Columns)+1)
		if row.Selected {
			cells[0] = selectedMarker
		} else {
			cells[0] = ""
		}
		for i := range page.Columns {
			if i < len(row.Cells) {
				cells = append(cells, row.Cells[i])
			} else {
				cells = append(cells, "")
			}
		}
		tw.AppendRow(cells)
	}

	numeric := append([]bool{false}, page.NumericColumns...)
	tw.SetColumnConfigs(columnConfigs(len(header), numeric))
	return tw.Render()
}

// renderStatement draws one royalty breakdown with a totals footer.
func renderStatement(keyHeader string, lines []royalties.Line, units int64, amount decimal.Decimal) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{keyHeader, "Units", "Amount"})
	for _, line := range lines {
		tw.AppendRow(table.Row{line.Key, strconv.FormatInt(line.Units, 10), line.Amount.StringFixed(2)})
	}
	tw.AppendFooter(table.Row{"Total", strconv.FormatInt(units, 10), amount.StringFixed(2)})
	tw.SetColumnConfigs(columnConfigs(3, []bool{false, true, true}))
	return tw.Render()
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func columnConfigs(columns int, numeric []bool) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(numeric) && numeric[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		})
	}
	return configs
}
