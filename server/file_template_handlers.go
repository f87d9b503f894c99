package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/greentrace/auth"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// Page template names
const (
	pageIndex          = "index.html"
	pageLogin          = "login.html"
	pageSignup         = "signup.html"
	pageForgotPassword = "forgot_password.html"
	pageResetPassword  = "reset_password.html"
	pageDashboard      = "dashboard.html"
	pageLoading        = "loading.html"
	pageNotFound       = "not_found.html"
)

var pageNames = []string{
	pageIndex, pageLogin, pageSignup, pageForgotPassword,
	pageResetPassword, pageDashboard, pageLoading, pageNotFound,
}

var templateFuncs = template.FuncMap{
	"percent": func(f float64) int { return int(f * 100) },
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// PageData is the template model shared by every page
type PageData struct {
	AppName   string
	Title     string
	Session   auth.State
	Error     string
	Message   string
	Errors    map[string]string
	Form      map[string]string // echoed input values, never passwords
	From      string
	Token     string
	ResetLink string
	Strength  *auth.Strength
}

type pages map[string]*template.Template

func loadPages() (pages, error) {
	p := make(pages, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		p[name] = tmpl
	}
	return p, nil
}

// render executes the page into a buffer so a template failure can still become a 500
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	tmpl, ok := p[name]
	if !ok {
		log.Error().Str("page", name).Msg("unknown page template")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
