package inbound

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

func sampleResult() entity.ExportResult {
	r := entity.ExportResult{
		RunID:   "run-1",
		Mode:    entity.ModeIncremental,
		Source:  "book.xlsx",
		Success: true,
		Elapsed: 1500 * time.Millisecond,
		Sheets: []entity.SheetResult{
			{Sheet: "Users", Table: "users", Inserted: 4, Duplicates: 1, Records: 10},
			{Sheet: "Tags", Table: "tags", Inserted: 2, Mismatched: 1, FullScan: true, Records: 2},
		},
	}
	r.Tally()
	return r
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputTable, "TABLE": OutputTable, "json": OutputJSON, " yaml ": OutputYAML} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseOutputFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Fatal("ParseOutputFormat(xml) err = nil")
	}
}

func TestRenderResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderResult(&buf, OutputJSON, sampleResult()); err != nil {
		t.Fatalf("RenderResult() err = %v", err)
	}

	var view ResultView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.RowsInserted != 6 || view.RowsSkipped != 2 || view.ElapsedMS != 1500 || len(view.Sheets) != 2 {
		t.Fatalf("view = %+v", view)
	}
}

func TestRenderResultYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderResult(&buf, OutputYAML, sampleResult()); err != nil {
		t.Fatalf("RenderResult() err = %v", err)
	}

	var view ResultView
	if err := yaml.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.Mode != entity.ModeIncremental || !view.Sheets[1].FullScan {
		t.Fatalf("view = %+v", view)
	}
}

func TestRenderResultTable(t *testing.T) {
	r := sampleResult()
	r.Success = false
	r.Err = errors.New("StoreWriteFailure: boom")

	var buf bytes.Buffer
	if err := RenderResult(&buf, OutputTable, r); err != nil {
		t.Fatalf("RenderResult() err = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"users", "tags", "FAILED", "error: StoreWriteFailure: boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}
