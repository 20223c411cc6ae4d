package handlers

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const layoutFile = "layout.html"

// TemplateCache holds every page parsed together with the shared layout.
type TemplateCache struct {
	cache map[string]*template.Template
	mu    sync.RWMutex
	funcs template.FuncMap
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		},
	}
}

// Load parses every *.html file in dir of fsys as a page on top of layout.html.
func (tc *TemplateCache) Load(fsys fs.FS, dir string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	files, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return errors.Wrap(err, "glob templates")
	}
	layout := path.Join(dir, layoutFile)
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(name).Funcs(tc.funcs).ParseFS(fsys, layout, file)
		if err != nil {
			return errors.Wrapf(err, "parse template %s", name)
		}
		tc.cache[name] = tmpl
	}
	if len(tc.cache) == 0 {
		return errors.Errorf("no templates found in %s", dir)
	}
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.cache[name]
}

// Render executes the page into a buffer so a failing template never leaves a
// half written response.
func (tc *TemplateCache) Render(w http.ResponseWriter, name string, status int, data any) error {
	tmpl := tc.Get(name)
	if tmpl == nil {
		return errors.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "execute template %s", name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
