// Package render formats the supervise run summary.
//
// Format rules:
//   - --summary selects json, table, or yaml
//   - An empty format defaults to table on a TTY and json otherwise
//   - Invalid formats are errors
//
// Color handling:
//   - Table output is styled only when the destination is a terminal
//   - --no-color disables styling; json and yaml are never styled
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	color  bool
	out    io.Writer
	styles styles
}

// NewRenderer creates a renderer writing to out.
// Styling is enabled when out is a terminal and noColor is false.
func NewRenderer(format Format, noColor bool, out io.Writer) *Renderer {
	tty := isTTY(out)
	if format == "" {
		if tty {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}
	return &Renderer{
		format: format,
		color:  tty && !noColor,
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Format returns the selected format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// field is one rendered row of a key/value table.
type field struct {
	name  string
	value string
}

func (r *Renderer) renderTable(data any) error {
	rows, ok := r.fields(data)
	if !ok {
		_, err := fmt.Fprintf(r.out, "%v\n", data)
		return err
	}
	if r.color {
		return r.renderStyled(rows)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, f := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", f.name, f.value)
	}
	return w.Flush()
}

func (r *Renderer) renderStyled(rows []field) error {
	var b strings.Builder
	for _, f := range rows {
		style := r.styles.value
		if f.name == "outcome" {
			style = r.styles.state(f.value)
		}
		b.WriteString(r.styles.label.Render(f.name + ":"))
		b.WriteString(style.Render(f.value))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// fields flattens a struct or map into rows. Empty strings are skipped.
func (r *Renderer) fields(data any) ([]field, bool) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	var rows []field
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			val := formatValue(v.Field(i))
			if val == "" {
				continue
			}
			rows = append(rows, field{name: fieldName(t.Field(i)), value: val})
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			rows = append(rows, field{
				name:  fmt.Sprintf("%v", iter.Key().Interface()),
				value: formatValue(iter.Value()),
			})
		}
	default:
		return nil, false
	}
	return rows, true
}

func fieldName(f reflect.StructField) string {
	// Prefer json tag name
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" && parts[0] != "-" {
			return parts[0]
		}
	}
	return strings.ToLower(f.Name)
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// isTTY returns true if the writer is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
