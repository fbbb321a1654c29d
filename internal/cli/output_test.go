package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"none", FormatNone},
		{"", FormatNone},
		{"TEXT", FormatNone}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta("bench-summary")

	if m.Type != "bench-summary" {
		t.Errorf("Type = %q, want %q", m.Type, "bench-summary")
	}
	if m.Version != "v1" {
		t.Errorf("Version = %q, want v1", m.Version)
	}
	if m.Generated.IsZero() {
		t.Error("Generated should not be zero")
	}
}

func TestToJSONKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Name", "name"},
		{"Failure Phase", "failure_phase"},
		{"Operations/s", "operations_per_s"},
	}
	for _, tt := range tests {
		if got := toJSONKey(tt.input); got != tt.want {
			t.Errorf("toJSONKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTable_RenderText(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(FormatText, &buf)

	tbl := out.Table("bench-summary", "Name", "Operations/s").Title("Summary")
	tbl.Align(1, AlignRight)
	tbl.AddRow("/kv/put", "1200")
	tbl.AddRow("/kv/get", "34000")
	tbl.Footer("total", "35200")

	if err := tbl.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	text := buf.String()
	for _, want := range []string{"NAME", "/kv/put", "34000", "Summary", "35200"} {
		if !strings.Contains(strings.ToUpper(text), strings.ToUpper(want)) {
			t.Errorf("text should contain %q, got:\n%s", want, text)
		}
	}
}

func TestTable_RenderJSON(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(FormatJSON, &buf).WithRunID("run-1")

	tbl := out.Table("bench-summary", "Name", "Operations/s")
	tbl.AddRow("/kv/put", "1200")
	tbl.AddRow("/kv/get", "34000")
	tbl.Footer("total", "35200")

	if err := tbl.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var envelope struct {
		Meta struct {
			Type  string `json:"type"`
			RunID string `json:"run_id"`
		} `json:"meta"`
		Data []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("JSON unmarshal error = %v\nraw: %s", err, buf.String())
	}

	if envelope.Meta.Type != "bench-summary" || envelope.Meta.RunID != "run-1" {
		t.Errorf("meta = %+v", envelope.Meta)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("data length = %d, want 2 (footer excluded)", len(envelope.Data))
	}
	if envelope.Data[1]["operations_per_s"] != "34000" {
		t.Errorf("data[1] = %v", envelope.Data[1])
	}
}

func TestTable_RenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(FormatMarkdown, &buf).WithRunID("run-2")

	tbl := out.Table("bench-summary", "Name", "Status").Title("Summary")
	tbl.AddRow("/kv/put", "ok")

	if err := tbl.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	md := buf.String()
	if !strings.HasPrefix(md, "---\n") {
		t.Errorf("markdown should start with frontmatter, got:\n%s", md)
	}
	if !strings.Contains(md, "run_id: run-2") {
		t.Errorf("frontmatter should carry the run id, got:\n%s", md)
	}
	if !strings.Contains(md, "### Summary") {
		t.Errorf("markdown should carry the title, got:\n%s", md)
	}
	if !strings.Contains(md, "| Name") || !strings.Contains(md, "/kv/put") {
		t.Errorf("markdown table missing, got:\n%s", md)
	}
}

func TestTable_EmptyRows(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewOutput(FormatJSON, &buf).Table("empty", "Name")

	if err := tbl.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var envelope struct {
		Data []map[string]string `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("JSON unmarshal error = %v", err)
	}
	if len(envelope.Data) != 0 || tbl.Len() != 0 {
		t.Errorf("data length = %d, want 0", len(envelope.Data))
	}
}

func TestOutputRender_None(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(FormatNone, &buf)

	if err := out.Table("x", "Name").AddRow("a").Render(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("none format wrote %q", buf.String())
	}
}

func TestKV_RenderText(t *testing.T) {
	var buf bytes.Buffer
	kv := NewOutput(FormatText, &buf).KV("version")
	kv.Set("Version", "0.1.0").Set("Go", "go1.23")

	if err := kv.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	text := buf.String()
	if !strings.Contains(text, "Version:") || !strings.Contains(text, "0.1.0") {
		t.Errorf("text = %q", text)
	}
}

func TestKV_RenderJSON(t *testing.T) {
	var buf bytes.Buffer
	kv := NewOutput(FormatJSON, &buf).KV("version")
	kv.Set("Build Date", "2024-01-01").Set("Benchmarks", 58)

	if err := kv.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Data["build_date"] != "2024-01-01" {
		t.Errorf("build_date = %v", envelope.Data["build_date"])
	}
	if envelope.Data["benchmarks"] != float64(58) {
		t.Errorf("benchmarks = %v", envelope.Data["benchmarks"])
	}
}

func TestKV_RenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	kv := NewOutput(FormatMarkdown, &buf).KV("version")
	kv.Set("Backend", "redis").Set("Data Dir", "/var/lib/arc")

	if err := kv.Render(); err != nil {
		t.Fatal(err)
	}
	md := buf.String()
	if !strings.Contains(md, "**Backend:** redis") {
		t.Errorf("markdown = %q", md)
	}
	if !strings.Contains(md, "**Data Dir:** `/var/lib/arc`") {
		t.Errorf("paths should be code-formatted: %q", md)
	}
}

func TestFormatMarkdownValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{"a|b", `a\|b`},
		{"/kv/put", "`/kv/put`"},
		{"has space/slash", "has space/slash"},
		{42, "42"},
	}
	for _, tt := range tests {
		if got := formatMarkdownValue(tt.in); got != tt.want {
			t.Errorf("formatMarkdownValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKV_ListValues(t *testing.T) {
	backends := []string{"badger", "memory", "redis"}

	var text bytes.Buffer
	if err := NewOutput(FormatText, &text).KV("bench-backends").Set("KV", backends).Render(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "badger, memory, redis") {
		t.Errorf("text = %q", text.String())
	}

	var js bytes.Buffer
	if err := NewOutput(FormatJSON, &js).KV("bench-backends").Set("KV", backends).Render(); err != nil {
		t.Fatal(err)
	}
	var envelope struct {
		Data map[string][]string `json:"data"`
	}
	if err := json.Unmarshal(js.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if got := envelope.Data["kv"]; len(got) != 3 || got[2] != "redis" {
		t.Errorf("kv = %v", got)
	}
}
