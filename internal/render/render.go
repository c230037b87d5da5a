package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts the format names case-insensitively; "" means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json, csv or markdown)", s)
	}
}

// Table is a titled grid. Right lists column names aligned right.
type Table struct {
	Title  string
	Header table.Row
	Rows   []table.Row
	Footer table.Row
	Right  []string
}

// Renderer writes a payload. The JSON renderer encodes payload as is; the
// tabular renderers ignore it and draw the tables instead.
type Renderer interface {
	Render(w io.Writer, payload any, tables ...Table) error
}

func New(f Format) Renderer {
	switch f {
	case FormatJSON:
		return &jsonRenderer{}
	case FormatCSV:
		return &tabularRenderer{draw: func(t table.Writer) string { return t.RenderCSV() }}
	case FormatMarkdown:
		return &tabularRenderer{draw: func(t table.Writer) string { return t.RenderMarkdown() }, titles: true}
	default:
		return &tabularRenderer{draw: func(t table.Writer) string { return t.Render() }, styled: true}
	}
}

type jsonRenderer struct{}

func (r *jsonRenderer) Render(w io.Writer, payload any, _ ...Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

type tabularRenderer struct {
	draw   func(table.Writer) string
	styled bool
	titles bool
}

func (r *tabularRenderer) Render(w io.Writer, _ any, tables ...Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		tw := table.NewWriter()
		if r.styled {
			tw.SetStyle(table.StyleLight)
			if t.Title != "" {
				tw.SetTitle(t.Title)
			}
		}
		if r.titles && t.Title != "" {
			if _, err := fmt.Fprintf(w, "### %s\n\n", t.Title); err != nil {
				return err
			}
		}
		tw.AppendHeader(t.Header)
		tw.AppendRows(t.Rows)
		if len(t.Footer) > 0 {
			tw.AppendFooter(t.Footer)
		}
		configs := make([]table.ColumnConfig, 0, len(t.Right))
		for _, name := range t.Right {
			configs = append(configs, table.ColumnConfig{Name: name, Align: text.AlignRight, AlignFooter: text.AlignRight})
		}
		tw.SetColumnConfigs(configs)
		if _, err := io.WriteString(w, r.draw(tw)+"\n"); err != nil {
			return err
		}
	}
	return nil
}
