package view

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/adscan/internal/model"
)

// DefaultCSVName is the file name offered for CSV exports.
const DefaultCSVName = "ads_txt_results.csv"

// Output formats accepted by Write.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Write renders entries to w in the named format.
func Write(w io.Writer, format string, entries []model.ResultEntry) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return WriteTable(w, entries)
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSON:
		return WriteJSON(w, entries)
	case FormatYAML, "yml":
		return WriteYAML(w, entries)
	default:
		return eris.Errorf("view: unknown format %q", format)
	}
}

// Header returns the union of field keys across entries in first-seen order.
func Header(entries []model.ResultEntry) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, e := range entries {
		for _, f := range e.Fields() {
			if !seen[f.Key] {
				seen[f.Key] = true
				keys = append(keys, f.Key)
			}
		}
	}
	return keys
}

// WriteCSV writes a header row and one row per entry. Every value is quoted
// and fields an entry lacks are empty. Nothing is written for no entries.
func WriteCSV(w io.Writer, entries []model.ResultEntry) error {
	if len(entries) == 0 {
		return nil
	}

	keys := Header(entries)
	var sb strings.Builder
	sb.WriteString(strings.Join(keys, ","))
	sb.WriteByte('\n')

	row := make([]string, len(keys))
	for _, e := range entries {
		for i, k := range keys {
			v, _ := e.Get(k)
			row[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return eris.Wrap(err, "view: write csv")
	}
	return nil
}

// WriteJSON writes entries as a JSON array of objects holding each entry's
// present fields.
func WriteJSON(w io.Writer, entries []model.ResultEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Records(entries)); err != nil {
		return eris.Wrap(err, "view: write json")
	}
	return nil
}

// WriteYAML writes entries as a YAML sequence, keeping field order.
func WriteYAML(w io.Writer, entries []model.ResultEntry) error {
	root := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range entries {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range e.Fields() {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
			)
		}
		root.Content = append(root.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return eris.Wrap(err, "view: write yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "view: close yaml encoder")
	}
	return nil
}

// WriteTable writes a titled, aligned table of the display columns.
func WriteTable(out io.Writer, entries []model.ResultEntry) error {
	cols := Columns(entries)

	_, _ = fmt.Fprintf(out, "%s\n%d entries found\n\n", Title(entries), len(entries))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headers := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = strings.ToUpper(c.Header)
		rules[i] = strings.Repeat("-", len(c.Header))
	}
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(rules, "\t"))

	vals := make([]string, len(cols))
	for _, e := range entries {
		for i, c := range cols {
			vals[i] = c.Value(e)
		}
		_, _ = fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "view: write table")
	}
	return nil
}

// Records converts entries to key/value maps of their present fields, the
// shape used by JSON responses and exports.
func Records(entries []model.ResultEntry) []map[string]string {
	out := make([]map[string]string, len(entries))
	for i, e := range entries {
		fields := e.Fields()
		m := make(map[string]string, len(fields))
		for _, f := range fields {
			m[f.Key] = f.Value
		}
		out[i] = m
	}
	return out
}
