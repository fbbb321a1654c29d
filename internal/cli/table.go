package cli

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Align is a column alignment.
type Align int

const (
	AlignDefault Align = iota
	AlignLeft
	AlignRight
)

// Table renders tabular data using go-pretty.
// Created via Output.Table().
type Table struct {
	out     *Output
	meta    Meta
	title   string
	headers []string
	align   []Align
	rows    [][]string
	footer  []string
}

// AddRow adds a row of values. Should match header count.
func (t *Table) AddRow(values ...string) *Table {
	t.rows = append(t.rows, values)
	return t
}

// Align sets the alignment of column i.
func (t *Table) Align(i int, a Align) *Table {
	if i >= 0 && i < len(t.align) {
		t.align[i] = a
	}
	return t
}

// Title sets the caption shown above text and markdown tables.
func (t *Table) Title(s string) *Table {
	t.title = s
	return t
}

// Footer sets a totals row. It is not part of the JSON data.
func (t *Table) Footer(values ...string) *Table {
	t.footer = values
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Render outputs the table in the configured format.
func (t *Table) Render() error {
	return t.out.Render(t)
}

// Meta returns the table metadata.
func (t *Table) Meta() Meta {
	return t.meta
}

// RenderText writes a box-drawn table using go-pretty.
func (t *Table) RenderText(w io.Writer) error {
	tw := t.newTableWriter()
	tw.SetStyle(table.StyleLight)
	if t.title != "" {
		tw.SetTitle("%s", t.title)
	}
	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}

// RenderJSON returns the rows as an array of objects keyed by header.
func (t *Table) RenderJSON() any {
	result := make([]map[string]string, 0, len(t.rows))
	for _, row := range t.rows {
		obj := make(map[string]string, len(t.headers))
		for i, h := range t.headers {
			if i < len(row) {
				obj[toJSONKey(h)] = row[i]
			}
		}
		result = append(result, obj)
	}
	return result
}

// RenderMarkdown writes a markdown table using go-pretty.
func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.title != "" {
		if _, err := io.WriteString(w, "### "+t.title+"\n\n"); err != nil {
			return err
		}
	}
	tw := t.newTableWriter()
	_, err := io.WriteString(w, tw.RenderMarkdown()+"\n")
	return err
}

func (t *Table) newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(toRow(t.headers))
	for _, row := range t.rows {
		tw.AppendRow(toRow(row))
	}
	if len(t.footer) > 0 {
		tw.AppendFooter(toRow(t.footer))
	}

	var configs []table.ColumnConfig
	for i, a := range t.align {
		if a == AlignDefault {
			continue
		}
		c := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft}
		if a == AlignRight {
			c.Align = text.AlignRight
			c.AlignFooter = text.AlignRight
		}
		configs = append(configs, c)
	}
	if len(configs) > 0 {
		tw.SetColumnConfigs(configs)
	}
	return tw
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// toJSONKey converts a header to a JSON key (lowercase, underscores).
func toJSONKey(s string) string {
	s = strings.ReplaceAll(s, "/", "_per_")
	return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
}
