package console

import "strings"

// Route is one sidebar entry.
type Route struct {
	Path  string
	Title string
}

// HomePath is the Cloud Management page, where "/" redirects.
const HomePath = "/cloudmgmt"

// Routes are the sidebar entries in display order.
var Routes = []Route{
	{Path: HomePath, Title: "Cloud Management"},
	{Path: "/security", Title: "Security"},
	{Path: "/properties", Title: "Properties"},
	{Path: "/settings", Title: "Settings"},
}

// Title returns the page header for path. Unknown paths are titled after
// their first segment.
func Title(path string) string {
	if path == "/" {
		return Routes[0].Title
	}
	for _, r := range Routes {
		if r.Path == path {
			return r.Title
		}
	}
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if seg == "" {
		return Routes[0].Title
	}
	return strings.ToUpper(seg[:1]) + seg[1:]
}
