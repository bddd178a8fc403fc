package tool

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/moyoez/qrsend/types"
)

// RenderFileTable renders files for the terminal, one row per file.
func RenderFileTable(files []types.RegisteredFile) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Type", "Size", "Path"})
	for _, f := range files {
		tw.AppendRow(table.Row{f.Name, f.FileType, f.SizeText, f.Path})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render()
}
