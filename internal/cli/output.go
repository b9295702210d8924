package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/catalog/internal/entity"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecords writes one row per record with a column per schema field.
func (a *app) printRecords(w io.Writer, v entity.Variant, es []*entity.Entity) error {
	if a.flags.jsonMode {
		return writeJSON(w, es)
	}
	if len(es) == 0 {
		fmt.Fprintf(w, "no %s records\n", v.Name)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(v.Fields, "\t")))
	for _, e := range es {
		cells := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			val, _ := e.Get(f)
			cells[i] = formatValue(val)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// printRecord writes one field per line.
func (a *app) printRecord(w io.Writer, e *entity.Entity) error {
	if a.flags.jsonMode {
		return writeJSON(w, e)
	}
	fields := e.Variant().Fields
	width := 0
	for _, f := range fields {
		width = max(width, len(f))
	}
	for _, f := range fields {
		val, _ := e.Get(f)
		fmt.Fprintf(w, "%-*s  %s\n", width, f, formatValue(val))
	}
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
