// Package table renders arbitrary JSON-shaped records as an HTML data grid.
// Columns are inferred from the records themselves: string-valued keys are
// shown as-is, other keys only when the caller supplies a cell template.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ActionsKey is the column that gets a blank header and sticks to the right.
const ActionsKey = "actions"

// EmptyText is shown when there is nothing to render.
const EmptyText = "No data."

// Row is one record with its keys in source order.
type Row struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value under key.
func (r Row) Get(key string) any {
	return r.Values[key]
}

// String returns the value under key when it is a string.
func (r Row) String(key string) string {
	s, _ := r.Values[key].(string)
	return s
}

// CellFunc renders one cell.
type CellFunc func(value any, row Row) template.HTML

// Options control column selection and cell rendering.
type Options struct {
	Templates map[string]CellFunc
	// TemplateOrder fixes the order of template-only columns. Keys missing
	// from it follow in sorted order.
	TemplateOrder []string
	Exclude       []string
	Fallback      CellFunc
	Labels        func(key string) string
}

// Column is one rendered column.
type Column struct {
	Key    string
	Label  string
	Sticky bool
}

// Cell is one rendered cell.
type Cell struct {
	Key    string
	HTML   template.HTML
	Sticky bool
}

// Table is the render result.
type Table struct {
	Columns   []Column
	Rows      [][]Cell
	Empty     bool
	EmptyText string
}

// Rows converts a single record or a list of records into rows, keeping each
// record's key order. List entries that are not records yield a Row with nil
// Values. ok is false when data is neither a record nor a list.
func Rows(data any) ([]Row, bool) {
	raw, err := rawJSON(data)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	switch tok {
	case json.Delim('{'):
		row, err := decodeObject(dec)
		if err != nil {
			return nil, false
		}
		return []Row{row}, true
	case json.Delim('['):
		var rows []Row
		for dec.More() {
			var elem json.RawMessage
			if err := dec.Decode(&elem); err != nil {
				return nil, false
			}
			row, err := decodeRecord(elem)
			if err != nil {
				return nil, false
			}
			rows = append(rows, row)
		}
		return rows, true
	default:
		return nil, false
	}
}

func rawJSON(data any) ([]byte, error) {
	switch t := data.(type) {
	case nil:
		return nil, fmt.Errorf("no data")
	case json.RawMessage:
		return t, nil
	case []byte:
		return t, nil
	default:
		return json.Marshal(data)
	}
}

func decodeRecord(raw json.RawMessage) (Row, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return Row{}, err
	}
	if tok != json.Delim('{') {
		return Row{}, nil
	}
	return decodeObject(dec)
}

// decodeObject reads the members of an object whose opening brace has been
// consumed.
func decodeObject(dec *json.Decoder) (Row, error) {
	row := Row{Values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Row{}, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return Row{}, err
		}
		if _, seen := row.Values[key]; !seen {
			row.Keys = append(row.Keys, key)
		}
		row.Values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}
	return row, nil
}

// Columns infers the column keys for rows.
func Columns(rows []Row, opts Options) []string {
	if len(rows) == 0 {
		return nil
	}
	sample := rows[0]
	var seen []string
	for _, r := range rows {
		for _, k := range r.Keys {
			if !slices.Contains(seen, k) {
				seen = append(seen, k)
			}
		}
	}

	var keys []string
	for _, k := range seen {
		if slices.Contains(opts.Exclude, k) {
			continue
		}
		_, isString := sample.Values[k].(string)
		_, hasTemplate := opts.Templates[k]
		if isString || hasTemplate {
			keys = append(keys, k)
		}
	}
	for _, k := range templateKeys(opts) {
		if !slices.Contains(opts.Exclude, k) && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func templateKeys(opts Options) []string {
	out := make([]string, 0, len(opts.Templates))
	for _, k := range opts.TemplateOrder {
		if _, ok := opts.Templates[k]; ok && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	var rest []string
	for k := range opts.Templates {
		if !slices.Contains(out, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// Render builds the grid for data.
func Render(data any, opts Options) Table {
	rows, ok := Rows(data)
	if !ok || len(rows) == 0 || rows[0].Values == nil {
		return Table{Empty: true, EmptyText: EmptyText}
	}
	labels := opts.Labels
	if labels == nil {
		labels = HeaderLabel
	}

	keys := Columns(rows, opts)
	t := Table{Columns: make([]Column, 0, len(keys))}
	for _, k := range keys {
		col := Column{Key: k, Label: labels(k), Sticky: k == ActionsKey}
		if k == ActionsKey {
			col.Label = ""
		}
		t.Columns = append(t.Columns, col)
	}
	for _, r := range rows {
		cells := make([]Cell, 0, len(keys))
		for _, k := range keys {
			cells = append(cells, Cell{Key: k, HTML: renderCell(k, r, opts), Sticky: k == ActionsKey})
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func renderCell(key string, r Row, opts Options) template.HTML {
	v := r.Values[key]
	if s, ok := v.(string); ok {
		return template.HTML(template.HTMLEscapeString(s))
	}
	if fn, ok := opts.Templates[key]; ok {
		return fn(v, r)
	}
	if opts.Fallback != nil {
		return opts.Fallback(v, r)
	}
	return template.HTML(template.HTMLEscapeString(Text(v)))
}

// Text is the generic plain-text rendering of a cell value.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	case float64, int, int64:
		return fmt.Sprint(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, listItem(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func listItem(v any) string {
	if v == nil {
		return ""
	}
	return Text(v)
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// HeaderLabel turns a camelCase or snake_case key into a title-cased label.
// Words that are already all caps are kept.
func HeaderLabel(key string) string {
	if key == "" {
		return ""
	}
	spaced := camelBoundary.ReplaceAllString(strings.ReplaceAll(key, "_", " "), "$1 $2")
	words := strings.Split(spaced, " ")
	for i, w := range words {
		if strings.ToUpper(w) == w {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
