package inbound

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputTable:
		return OutputTable, nil
	case OutputJSON, OutputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q, want table, json or yaml", s)
	}
}

// RenderResult writes the run summary to w in the requested format.
func RenderResult(w io.Writer, format OutputFormat, result entity.ExportResult) error {
	view := NewResultView(result)

	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderTable(w, view)
	}
}

func renderTable(w io.Writer, view ResultView) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s export of %s", view.Mode, view.Source))
	t.AppendHeader(table.Row{"Sheet", "Table", "Inserted", "Duplicates", "Mismatched", "Bad dates", "Full scan", "Records"})

	for _, s := range view.Sheets {
		fullScan := ""
		if s.FullScan {
			fullScan = "yes"
		}
		t.AppendRow(table.Row{s.Sheet, s.Table, s.Inserted, s.Duplicates, s.Mismatched, s.Unparseable, fullScan, s.Records})
	}

	status := "OK"
	if !view.Success {
		status = "FAILED"
	}
	t.AppendFooter(table.Row{status, fmt.Sprintf("%dms", view.ElapsedMS), view.RowsInserted, "", "", "", "", ""})
	t.Render()

	if view.Error != "" {
		_, err := fmt.Fprintf(w, "error: %s\n", view.Error)
		return err
	}
	return nil
}
