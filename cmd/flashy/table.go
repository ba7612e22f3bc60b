package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one output column. Numeric columns render right-aligned.
type column struct {
	title   string
	numeric bool
}

// Column sets for the three tabular listings.
var (
	deviceColumns = []column{
		{title: "Serial"},
		{title: "ID"},
		{title: "Mode"},
		{title: "Bus", numeric: true},
		{title: "Addr", numeric: true},
		{title: "Flashable"},
		{title: "Description"},
	}
	historyColumns = []column{
		{title: "#", numeric: true},
		{title: "Serial"},
		{title: "State"},
		{title: "Storage"},
		{title: "Exit", numeric: true},
		{title: "Finished"},
		{title: "Detail"},
	}
	adbColumns = []column{
		{title: "Serial"},
		{title: "State"},
		{title: "Transport", numeric: true},
		{title: "Model"},
		{title: "Product"},
		{title: "USB"},
	}
)

func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.title
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}
