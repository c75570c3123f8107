package display

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Table(title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintf(c.out, "\n%s\n", title); err != nil {
		return err
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	return nil
}
