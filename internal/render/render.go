// Package render turns view data into HTML. Pages share one layout; every
// fragment is also a standalone template so handlers and the live updater
// can re-render a single list.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/models"
)

//go:embed templates static
var assets embed.FS

// Renderer implements echo.Renderer.
type Renderer struct {
	base  *template.Template
	pages map[string]*template.Template
	now   func() time.Time
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}, now: time.Now}

	base, err := template.New("").Funcs(r.funcs()).ParseFS(assets, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	r.base = base

	pages, err := fs.Glob(assets, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(assets, p); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		r.pages[strings.TrimSuffix(path.Base(p), ".html")] = clone
	}
	return r, nil
}

// Static returns the embedded stylesheet and script.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Render executes a page by name, or a fragment when no page has that name.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	if page, ok := r.pages[name]; ok {
		return page.ExecuteTemplate(w, "layout", data)
	}
	if r.base.Lookup(name) == nil {
		return fmt.Errorf("render: unknown template %q", name)
	}
	return r.base.ExecuteTemplate(w, name, data)
}

// Fragment renders one fragment to a string.
func (r *Renderer) Fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HasFragment reports whether name is a fragment template.
func (r *Renderer) HasFragment(name string) bool {
	return r.base.Lookup(name) != nil && name != "layout"
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"warnBadge": Warn,
		"countdown": func(room models.TempRoom) Countdown {
			return RoomCountdown(room, r.now())
		},
		"roleColor":    models.HexColor,
		"initials":     initials,
		"truncate":     truncate,
		"activityTime": activityTime,
		"duration":     duration,
		"timeago": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("15:04:05")
		},
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd argument count")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
		"add": func(a, b int) int { return a + b },
	}
}
