package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// KV renders labelled values, one per line, in the order they were set.
// String slices are joined for text and markdown and stay arrays in JSON.
// Created via Output.KV().
type KV struct {
	out    *Output
	meta   Meta
	keys   []string
	values []any
}

// Set appends key with value.
func (k *KV) Set(key string, value any) *KV {
	k.keys = append(k.keys, key)
	k.values = append(k.values, value)
	return k
}

func (k *KV) Render() error { return k.out.Render(k) }

func (k *KV) Meta() Meta { return k.meta }

func (k *KV) RenderText(w io.Writer) error {
	if len(k.keys) == 0 {
		return nil
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options = table.OptionsNoBordersAndSeparators
	for i, key := range k.keys {
		tw.AppendRow(table.Row{key + ":", displayValue(k.values[i])})
	}
	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}

func (k *KV) RenderJSON() any {
	data := make(map[string]any, len(k.keys))
	for i, key := range k.keys {
		data[toJSONKey(key)] = k.values[i]
	}
	return data
}

func (k *KV) RenderMarkdown(w io.Writer) error {
	var b strings.Builder
	for i, key := range k.keys {
		fmt.Fprintf(&b, "**%s:** %s\n\n", key, formatMarkdownValue(k.values[i]))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func displayValue(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ", ")
	}
	return fmt.Sprint(v)
}

// formatMarkdownValue code-formats single paths and identifiers and
// escapes the table delimiter in everything else.
func formatMarkdownValue(v any) string {
	s := displayValue(v)
	if strings.ContainsAny(s, "/_") && !strings.ContainsAny(s, " `") {
		return "`" + s + "`"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
