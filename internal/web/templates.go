package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/erazemk/poshledger/internal/auth"
	"github.com/erazemk/poshledger/internal/blob"
	"github.com/erazemk/poshledger/internal/model"
	webembed "github.com/erazemk/poshledger/web"
)

// Currency is the currency every amount in the ledger is kept in.
const Currency = "USD"

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// formatMoney renders an amount with its currency symbol, e.g. "$1,234.50".
func formatMoney(d decimal.Decimal) string {
	return money.New(d.Shift(2).Round(0).IntPart(), Currency).Display()
}

// imageSrc turns a stored image reference into a URL the browser can load.
func imageSrc(ref string) string {
	if blob.Owns(ref) {
		return "/" + ref
	}
	return ref
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"money":       formatMoney,
		"imageSrc":    imageSrc,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleUser:
				return "Reseller"
			default:
				return role
			}
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"items.html",
		"item_form.html",
		"import.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given data and status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Blobs     *blob.Store
	Templates *Templates
	JWTSecret string
}

// page returns the base page data for an authenticated request.
func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{Title: title, User: GetWebClaims(r.Context())}
}
