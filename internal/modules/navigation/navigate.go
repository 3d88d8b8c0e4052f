package navigation

import (
	"html/template"
	"net/http"
	"strings"
)

// Navigate performs a full navigation to path. The path is written to the
// Location header verbatim.
func Navigate(w http.ResponseWriter, path string) {
	redirect(w, path, http.StatusFound)
}

// NavigateReplace is the replace variant: 303 responses do not add a
// history entry for the submitting page.
func NavigateReplace(w http.ResponseWriter, path string) {
	redirect(w, path, http.StatusSeeOther)
}

func redirect(w http.ResponseWriter, path string, status int) {
	w.Header().Set("Location", path)
	w.WriteHeader(status)
}

type LinkProps struct {
	To       string
	Children template.HTML
	// OnClick runs before the browser follows the link; navigation is never prevented.
	OnClick template.JS
}

var linkTmpl = template.Must(template.New("link").Parse(
	`<a href="{{.To}}"{{if .OnClick}} onclick="{{.OnClick}}"{{end}}>{{.Children}}</a>`,
))

// Link renders a plain hyperlink whose href is To.
func Link(p LinkProps) template.HTML {
	var b strings.Builder
	if err := linkTmpl.Execute(&b, p); err != nil {
		return ""
	}
	return template.HTML(b.String())
}
