package report

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
)

// Table is one named view as columns and rows. Columns are always present, also when there
// are no rows.
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// TableOf builds a table from a slice of flat structs, taking column names from json tags.
// Nil pointers become nil cells; other pointers are dereferenced.
func TableOf[T any](name string, rows []T) Table {
	typ := reflect.TypeFor[T]()
	t := Table{Name: name, Columns: columnsOf(typ), Rows: make([][]any, 0, len(rows))}

	for _, r := range rows {
		t.Rows = append(t.Rows, cellsOf(reflect.ValueOf(r)))
	}
	return t
}

func columnsOf(typ reflect.Type) []string {
	var cols []string
	for i := range typ.NumField() {
		f := typ.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = append(cols, columnsOf(f.Type)...)
			continue
		}
		if name, ok := jsonName(f); ok {
			cols = append(cols, name)
		}
	}
	return cols
}

func cellsOf(v reflect.Value) []any {
	var cells []any
	for i := range v.NumField() {
		f := v.Type().Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cells = append(cells, cellsOf(v.Field(i))...)
			continue
		}
		if _, ok := jsonName(f); !ok {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				cells = append(cells, nil)
				continue
			}
			fv = fv.Elem()
		}
		cells = append(cells, fv.Interface())
	}
	return cells
}

func jsonName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, true
}

// Cell renders one value for text output. Nil is an empty cell.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteText prints the tables as aligned plain text.
func WriteText(w io.Writer, tables []Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "== %s (%d rows)\n", t.Name, len(t.Rows))
		fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = Cell(v)
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	}
	return tw.Flush()
}
