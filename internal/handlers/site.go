package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"langsite/internal/authapi"
	"langsite/internal/i18n"
	"langsite/internal/langroute"
	"langsite/internal/logger"
	"langsite/internal/storage"
	"langsite/middleware"
)

// Page names, one template file each under templates/pages.
const (
	pageHome     = "home"
	pageAbout    = "about"
	pageLogin    = "login"
	pageRegister = "register"
	pageNotFound = "notfound"
)

var pageNames = []string{pageHome, pageAbout, pageLogin, pageRegister, pageNotFound}

// SiteDeps are the collaborators of the localized pages.
type SiteDeps struct {
	Catalog    *i18n.Catalog
	Router     *langroute.Router
	Auth       authapi.Client
	Storage    storage.Provider
	WebFS      fs.FS
	TrustProxy bool
	// OnSessionCorrupt is called when a malformed session is discarded.
	OnSessionCorrupt func()
	// AuthLimiter wraps the sign-in and sign-up POST handlers; nil disables it.
	AuthLimiter func(http.Handler) http.Handler
}

type site struct {
	catalog    *i18n.Catalog
	router     *langroute.Router
	auth       authapi.Client
	pages      map[string]*template.Template
	about      map[i18n.Language][]aboutSection
	guard      *submitGuard
	trustProxy bool
	onCorrupt  func()
}

type aboutSection struct {
	Title string
	Body  template.HTML
}

// RegisterSiteRoutes mounts "/" and the /{lang} page tree.
func RegisterSiteRoutes(router chi.Router, deps SiteDeps) error {
	s, err := newSite(deps)
	if err != nil {
		return err
	}
	limiter := deps.AuthLimiter
	if limiter == nil {
		limiter = func(next http.Handler) http.Handler { return next }
	}

	router.Group(func(r chi.Router) {
		r.Use(storage.Middleware(deps.Storage))
		r.Get("/", s.root)
		r.Route("/{lang}", func(r chi.Router) {
			r.Use(s.router.Middleware)
			r.Use(middleware.NoStore)
			r.Get("/", s.home)
			r.Get("/about", s.aboutPage)
			r.Get("/login", s.loginPage)
			r.With(limiter).Post("/login", s.login)
			r.Get("/register", s.registerPage)
			r.With(limiter).Post("/register", s.register)
			r.Post("/logout", s.logout)
			r.Get("/switch/{target}", s.switchLanguage)
			r.NotFound(s.notFound)
		})
	})
	return nil
}

func newSite(deps SiteDeps) (*site, error) {
	if deps.Catalog == nil || deps.Router == nil || deps.Auth == nil || deps.Storage == nil || deps.WebFS == nil {
		return nil, fmt.Errorf("site: missing dependency")
	}
	pages, err := parsePages(deps.WebFS)
	if err != nil {
		return nil, err
	}
	about, err := renderAbout(deps.Catalog)
	if err != nil {
		return nil, err
	}
	return &site{
		catalog:    deps.Catalog,
		router:     deps.Router,
		auth:       deps.Auth,
		pages:      pages,
		about:      about,
		guard:      newSubmitGuard(),
		trustProxy: deps.TrustProxy,
		onCorrupt:  deps.OnSessionCorrupt,
	}, nil
}

// parsePages builds one template set per page: the shared layout plus the page file.
func parsePages(webFS fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(templateFuncMap()).ParseFS(webFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		page, err := clone.ParseFS(webFS, "templates/pages/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = page
	}
	return pages, nil
}

// renderAbout converts the markdown sections of the about page once per language.
// goldmark drops raw HTML unless WithUnsafe is set, so the output is trusted.
func renderAbout(catalog *i18n.Catalog) (map[i18n.Language][]aboutSection, error) {
	sections := []struct{ title, body string }{
		{title: "about.missionTitle", body: "about.mission"},
		{title: "about.valuesTitle", body: "about.values"},
	}
	out := make(map[i18n.Language][]aboutSection)
	for _, lang := range catalog.Supported() {
		table := catalog.Table(lang)
		for _, section := range sections {
			var buf bytes.Buffer
			if err := goldmark.Convert([]byte(table.T(section.body)), &buf); err != nil {
				return nil, fmt.Errorf("render %s for %s: %w", section.body, lang, err)
			}
			out[lang] = append(out[lang], aboutSection{
				Title: table.T(section.title),
				Body:  template.HTML(buf.String()),
			})
		}
	}
	return out, nil
}

func (s *site) root(w http.ResponseWriter, r *http.Request) {
	store, ok := storage.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	target := s.router.RootTarget(r.Context(), store, r.Header.Get("Accept-Language"))
	logger.LanguageEvent("", string(target), langroute.ReasonRoot).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg("redirecting root")
	http.Redirect(w, r, "/"+string(target), http.StatusFound)
}
