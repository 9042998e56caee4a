package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/matthewbaird/cloudconsole/internal/activity"
	"github.com/matthewbaird/cloudconsole/internal/config"
	"github.com/matthewbaird/cloudconsole/internal/console"
	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/signals"
	"github.com/matthewbaird/cloudconsole/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

// recentLimit bounds the Security page feed.
const recentLimit = 100

var funcMap = template.FuncMap{
	"join": strings.Join,
}

// mustParsePage parses the shared layout with one page's content template.
func mustParsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcMap).ParseFS(templateFS,
		"templates/layout.html", "templates/dialog.html", "templates/"+name+".html"))
}

// layoutData is what every page template receives.
type layoutData struct {
	Title   string
	Path    string
	Routes  []console.Route
	Refresh bool
	Content any
}

// dialogView is a dialog as the cloudmgmt page shows it.
type dialogView struct {
	Snapshot form.Snapshot
	Action   string
}

type cloudmgmtContent struct {
	DialogsPath string
	Grid        table.Table
	Dialog      *dialogView
}

type securityContent struct {
	Grid    table.Table
	Summary signals.Summary
}

type propertiesContent struct {
	Providers []*schema.Provider
}

type settingsContent struct {
	Grid table.Table
}

// Pages serves the server-rendered console.
type Pages struct {
	page     *console.Page
	dialogs  *Dialogs
	activity activity.Store
	registry *schema.Registry
	settings config.Config
	logger   *slog.Logger
	tmpl     map[string]*template.Template
}

// NewPages creates the page handlers. settings is shown on the Settings page
// and should already be masked.
func NewPages(page *console.Page, d *Dialogs, act activity.Store, reg *schema.Registry, settings config.Config, logger *slog.Logger) *Pages {
	tmpl := make(map[string]*template.Template)
	for _, name := range []string{"cloudmgmt", "security", "properties", "settings"} {
		tmpl[name] = mustParsePage(name)
	}
	return &Pages{
		page:     page,
		dialogs:  d,
		activity: act,
		registry: reg,
		settings: settings,
		logger:   logger,
		tmpl:     tmpl,
	}
}

// Root redirects to the default page.
func (p *Pages) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, console.HomePath, http.StatusFound)
}

// CloudMgmt renders the record grid and, with ?dialog=<id>, an open dialog.
func (p *Pages) CloudMgmt(w http.ResponseWriter, r *http.Request) {
	p.renderCloudMgmt(w, r, r.URL.Query().Get("dialog"))
}

func (p *Pages) renderCloudMgmt(w http.ResponseWriter, r *http.Request, dialogID string) {
	grid, err := p.page.Grid(r.Context())
	if err != nil {
		p.fail(w, err)
		return
	}
	content := cloudmgmtContent{DialogsPath: console.DialogsPath, Grid: grid}
	refresh := false
	if dialogID != "" {
		if s, ok := p.dialogs.Get(dialogID); ok {
			snap := s.Snapshot()
			content.Dialog = &dialogView{Snapshot: snap, Action: console.DialogsPath + "/" + snap.ID}
			refresh = pending(snap)
		}
	}
	p.render(w, r, "cloudmgmt", console.HomePath, refresh, content)
}

// pending reports whether the dialog is waiting on its background load.
func pending(snap form.Snapshot) bool {
	return snap.State == form.StateLoading
}

// Security renders the recent activity feed and its signal summary.
func (p *Pages) Security(w http.ResponseWriter, r *http.Request) {
	entries, err := p.activity.Recent(r.Context(), recentLimit)
	if err != nil {
		p.fail(w, err)
		return
	}
	p.render(w, r, "security", "/security", false, securityContent{
		Grid:    console.ActivityGrid(entries),
		Summary: signals.Aggregate(entries, time.Now()),
	})
}

// Properties renders an overview of the loaded provider schemas.
func (p *Pages) Properties(w http.ResponseWriter, r *http.Request) {
	var provs []*schema.Provider
	for _, name := range p.registry.Names() {
		if prov, ok := p.registry.Get(name); ok {
			provs = append(provs, prov)
		}
	}
	p.render(w, r, "properties", "/properties", false, propertiesContent{Providers: provs})
}

// Settings renders the effective configuration.
func (p *Pages) Settings(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, "settings", "/settings", false, settingsContent{
		Grid: table.Render(settingRows(p.settings), table.Options{}),
	})
}

type settingRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func settingRows(c config.Config) []settingRow {
	return []settingRow{
		{"server.port", fmt.Sprint(c.Server.Port)},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout.String()},
		{"store.driver", c.Store.Driver},
		{"store.dsn", c.Store.DSN},
		{"store.encryption_key", c.Store.EncryptionKey},
		{"store.seed", fmt.Sprint(c.Store.Seed)},
		{"loader.max_delay", c.Loader.MaxDelay.String()},
		{"session.max_age", c.Session.MaxAge.String()},
		{"session.idle_timeout", c.Session.IdleTimeout.String()},
		{"session.cleanup_interval", c.Session.CleanupInterval.String()},
		{"schema.override_file", c.Schema.OverrideFile},
		{"schema.watch", fmt.Sprint(c.Schema.Watch)},
		{"events.buffer_size", fmt.Sprint(c.Events.BufferSize)},
		{"events.activity_capacity", fmt.Sprint(c.Events.ActivityCapacity)},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"logging.add_source", fmt.Sprint(c.Logging.AddSource)},
	}
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, name, path string, refresh bool, content any) {
	var buf bytes.Buffer
	err := p.tmpl[name].ExecuteTemplate(&buf, "layout", layoutData{
		Title:   console.Title(path),
		Path:    path,
		Routes:  console.Routes,
		Refresh: refresh,
		Content: content,
	})
	if err != nil {
		p.fail(w, fmt.Errorf("rendering %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		p.logger.DebugContext(r.Context(), "writing page", "error", err)
	}
}

func (p *Pages) fail(w http.ResponseWriter, err error) {
	status, _ := errorStatus(err)
	if status == http.StatusInternalServerError {
		p.logger.Error("page error", "error", err)
		http.Error(w, "internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}
