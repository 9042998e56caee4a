package console

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/matthewbaird/cloudconsole/internal/fieldpath"
	"github.com/matthewbaird/cloudconsole/internal/table"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// DialogsPath is where the grid's Edit and Delete buttons post.
const DialogsPath = "/cloudmgmt/dialogs"

// NotAvailable is the grid's fallback cell.
const NotAvailable = template.HTML(`<span class="muted">N/A</span>`)

var gridExclude = []string{"credentials", "proxyUrl", "eventSource"}

// Grid renders the record list.
func (p *Page) Grid(ctx context.Context) (table.Table, error) {
	clouds, err := p.store.List(ctx)
	if err != nil {
		return table.Table{}, fmt.Errorf("listing clouds: %w", err)
	}
	return table.Render(clouds, p.gridOptions()), nil
}

func (p *Page) gridOptions() table.Options {
	return table.Options{
		Templates: map[string]table.CellFunc{
			"cloudGroupName":      joined,
			"regionList":          joined,
			"eventProcessEnabled": badge("Enabled", "Disabled", "off"),
			"userActivityEnabled": badge("Active", "Inactive", "idle"),
			"scheduleScanSetting": p.schedule,
			"eventSource":         trailName,
			table.ActionsKey:      actions,
		},
		TemplateOrder: []string{table.ActionsKey},
		Exclude:       gridExclude,
		Fallback:      func(any, table.Row) template.HTML { return NotAvailable },
	}
}

func joined(v any, _ table.Row) template.HTML {
	list, ok := v.([]any)
	if !ok {
		return "-"
	}
	return template.HTML(template.HTMLEscapeString(table.Text(list)))
}

func badge(on, off, offClass string) table.CellFunc {
	return func(v any, _ table.Row) template.HTML {
		if v == true {
			return template.HTML(`<span class="badge on">` + on + `</span>`)
		}
		return template.HTML(`<span class="badge ` + offClass + `">` + off + `</span>`)
	}
}

// schedule shows the summary and, when scanning is on, the next run.
func (p *Page) schedule(v any, row table.Row) template.HTML {
	m, ok := v.(map[string]any)
	if !ok {
		return "-"
	}
	var s types.ScanSchedule
	if err := fieldpath.ToStruct(m, &s); err != nil {
		return "-"
	}
	out := template.HTMLEscapeString(s.Summary())
	if row.Get("scheduleScanEnabled") == true {
		if next, err := s.Next(p.now()); err == nil {
			out += `<br><small class="muted">next ` + next.Format("2006-01-02 15:04") + `</small>`
		}
	}
	return template.HTML(out)
}

func trailName(v any, _ table.Row) template.HTML {
	m, _ := v.(map[string]any)
	name, _ := m["cloudTrailName"].(string)
	if name == "" {
		return "-"
	}
	return template.HTML(template.HTMLEscapeString(name))
}

func actions(_ any, row table.Row) template.HTML {
	id := template.HTMLEscapeString(row.String("id"))
	var b strings.Builder
	b.WriteString(`<div class="actions">`)
	for _, a := range []struct{ mode, label, class string }{
		{"edit", "Edit", "btn"},
		{"delete", "Delete", "btn danger"},
	} {
		fmt.Fprintf(&b, `<form method="post" action="%s"><input type="hidden" name="mode" value="%s">`+
			`<input type="hidden" name="cloudId" value="%s"><button class="%s">%s</button></form>`,
			DialogsPath, a.mode, id, a.class, a.label)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}
