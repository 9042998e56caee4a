package table

import (
	"encoding/json"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(t Table) []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Key)
	}
	return out
}

func TestRows_PreservesKeyOrder(t *testing.T) {
	rows, ok := Rows(json.RawMessage(`[{"z":"1","a":2,"m":null},{"b":"x","z":"2"}]`))
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"z", "a", "m"}, rows[0].Keys)
	assert.Equal(t, json.Number("2"), rows[0].Get("a"))
	assert.Equal(t, []string{"b", "z"}, rows[1].Keys)
	assert.Equal(t, "x", rows[1].String("b"))

	type rec struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	}
	rows, ok = Rows(rec{Name: "n", ID: "1"})
	require.True(t, ok)
	assert.Equal(t, []string{"name", "id"}, rows[0].Keys)

	_, ok = Rows("text")
	assert.False(t, ok)
	_, ok = Rows(nil)
	assert.False(t, ok)
}

func TestRender_ColumnInference(t *testing.T) {
	data := json.RawMessage(`[
		{"id":"1","name":"prod","regionList":["global","us-east-1"],"enabled":true,"count":3,"secret":"s"},
		{"id":"2","name":"dev","regionList":[],"enabled":false,"count":1,"secret":"t","late":"x"}
	]`)
	tbl := Render(data, Options{
		Templates: map[string]CellFunc{
			"enabled": func(v any, _ Row) template.HTML {
				if v == true {
					return "On"
				}
				return "Off"
			},
			"actions": func(_ any, row Row) template.HTML {
				return template.HTML("edit " + row.String("id"))
			},
		},
		Exclude: []string{"secret"},
	})

	// late is absent from the first row and has no template.
	assert.Equal(t, []string{"id", "name", "enabled", "actions"}, keysOf(tbl))
	assert.False(t, tbl.Empty)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, template.HTML("On"), tbl.Rows[0][2].HTML)
	assert.Equal(t, template.HTML("Off"), tbl.Rows[1][2].HTML)
	assert.Equal(t, template.HTML("edit 2"), tbl.Rows[1][3].HTML)

	assert.Equal(t, "", tbl.Columns[3].Label)
	assert.True(t, tbl.Columns[3].Sticky)
	assert.Equal(t, "Name", tbl.Columns[1].Label)
}

func TestRender_StringCellsWinOverTemplates(t *testing.T) {
	called := false
	tbl := Render(json.RawMessage(`[{"status":"raw <b>"}]`), Options{
		Templates: map[string]CellFunc{"status": func(any, Row) template.HTML {
			called = true
			return "templated"
		}},
	})
	assert.Equal(t, template.HTML("raw &lt;b&gt;"), tbl.Rows[0][0].HTML)
	assert.False(t, called)
}

func TestRender_Fallbacks(t *testing.T) {
	data := json.RawMessage(`[
		{"name":"a","list":["x","y"],"nothing":null,"flag":true,"n":2.5,"obj":{"k":"v"}},
		{"name":"b","list":"plain","nothing":"now text","flag":false,"n":1,"obj":[]}
	]`)
	// Non-string first-row values only show with a template, so template
	// every key and fall through to the generic renderer via Fallback=nil.
	passthrough := func(v any, _ Row) template.HTML { return template.HTML(Text(v)) }
	tbl := Render(data, Options{Templates: map[string]CellFunc{
		"list": passthrough, "nothing": passthrough, "flag": passthrough, "n": passthrough, "obj": passthrough,
	}})
	cells := map[string]template.HTML{}
	for _, c := range tbl.Rows[0] {
		cells[c.Key] = c.HTML
	}
	assert.Equal(t, template.HTML("x, y"), cells["list"])
	assert.Equal(t, template.HTML("-"), cells["nothing"])
	assert.Equal(t, template.HTML("true"), cells["flag"])
	assert.Equal(t, template.HTML("2.5"), cells["n"])
	assert.Equal(t, template.HTML(`{"k":"v"}`), cells["obj"])

	// Second row: string values render verbatim even though the column came
	// from a template.
	assert.Equal(t, template.HTML("plain"), tbl.Rows[1][1].HTML)
}

func TestRender_CallerFallback(t *testing.T) {
	data := json.RawMessage(`[{"name":"a","extra":"x"},{"name":"b","extra":7}]`)
	tbl := Render(data, Options{Fallback: func(any, Row) template.HTML { return "N/A" }})
	assert.Equal(t, []string{"name", "extra"}, keysOf(tbl))
	assert.Equal(t, template.HTML("N/A"), tbl.Rows[1][1].HTML)

	tbl = Render(data, Options{})
	assert.Equal(t, template.HTML("7"), tbl.Rows[1][1].HTML)
}

func TestRender_Empty(t *testing.T) {
	for name, data := range map[string]any{
		"nil":        nil,
		"empty list": []any{},
		"scalar":     42,
		"scalars":    []any{"a", "b"},
	} {
		t.Run(name, func(t *testing.T) {
			tbl := Render(data, Options{})
			assert.True(t, tbl.Empty)
			assert.Equal(t, EmptyText, tbl.EmptyText)
		})
	}
}

func TestRender_SingleRecord(t *testing.T) {
	tbl := Render(map[string]any{"name": "solo"}, Options{})
	assert.Equal(t, []string{"name"}, keysOf(tbl))
	require.Len(t, tbl.Rows, 1)
}

func TestRender_TemplateOrder(t *testing.T) {
	noop := func(any, Row) template.HTML { return "" }
	tbl := Render(json.RawMessage(`{"name":"a"}`), Options{
		Templates:     map[string]CellFunc{"z": noop, "actions": noop, "b": noop},
		TemplateOrder: []string{"z", "actions"},
	})
	assert.Equal(t, []string{"name", "z", "actions", "b"}, keysOf(tbl))
}

func TestHeaderLabel(t *testing.T) {
	tests := map[string]string{
		"cloudGroupName":      "Cloud Group Name",
		"eventProcessEnabled": "Event Process Enabled",
		"proxyUrl":            "Proxy Url",
		"AWS_REGION":          "AWS REGION",
		"snake_case_key":      "Snake Case Key",
		"id":                  "Id",
		"ID":                  "ID",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, HeaderLabel(in), in)
	}
}
