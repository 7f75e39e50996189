package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"

	"github.com/flowbaker/filerelay/internal/domain"
)

const IndexView = "index"

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets/*
var assetsFS embed.FS

// Page is the binding of the index view.
type Page struct {
	Error       string
	Success     string
	Files       []domain.FileDescriptor
	BaseURL     string
	MaxFileSize string
}

// Engine renders the embedded html templates for fiber.
type Engine struct {
	mu        sync.RWMutex
	templates *template.Template
}

func NewEngine() (*Engine, error) {
	engine := &Engine{}

	if err := engine.Load(); err != nil {
		return nil, err
	}

	return engine, nil
}

func (e *Engine) Load() error {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	e.mu.Lock()
	e.templates = templates
	e.mu.Unlock()

	return nil
}

// Render executes the named template. Layouts are not supported.
func (e *Engine) Render(out io.Writer, name string, binding any, _ ...string) error {
	e.mu.RLock()
	templates := e.templates
	e.mu.RUnlock()

	if templates == nil {
		return fmt.Errorf("templates are not loaded")
	}

	tmpl := templates.Lookup(name)
	if tmpl == nil {
		return fmt.Errorf("template %q not found", name)
	}

	return tmpl.Execute(out, binding)
}

// Assets returns the stylesheet tree served under /static.
func Assets() fs.FS {
	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}

	return assets
}
