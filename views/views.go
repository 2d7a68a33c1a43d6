// Package views renders the HTML pages and serves the static assets.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"minitwit/models"
)

// Page names.
const (
	TimelinePage = "timeline.html"
	LoginPage    = "login.html"
	RegisterPage = "register.html"
)

// Timeline endpoints, used by the timeline page to pick what to show.
const (
	EndpointTimeline       = "timeline"
	EndpointPublicTimeline = "public_timeline"
	EndpointUserTimeline   = "user_timeline"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// FormValues are redisplayed when a form is rejected. Passwords never are.
type FormValues struct {
	Username string
	Email    string
}

// Page is the data every template receives.
type Page struct {
	Title    string
	Endpoint string
	User     *models.User
	Flashes  []string

	Messages    []models.TimelineMessage
	ProfileUser *models.User
	Followed    bool

	Error string
	Form  FormValues
}

// Renderer holds the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"datetimeformat": FormatDatetime,
		"gravatar":       GravatarURL,
		"pathescape":     url.PathEscape,
	}
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{TimelinePage, LoginPage, RegisterPage} {
		tmpl, err := template.New(page).Funcs(Funcs()).ParseFS(templateFiles, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never leaves
// a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *Page) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
