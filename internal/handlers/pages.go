package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"langsite/internal/i18n"
	"langsite/internal/langroute"
	"langsite/internal/logger"
	"langsite/internal/session"
	"langsite/internal/storage"
	"langsite/internal/version"
	"langsite/middleware"
)

type pagePhase int

const (
	phaseInitializing pagePhase = iota
	phaseReady
)

var errPageNotReady = errors.New("page rendered before initialization completed")

// pageState is what a page knows about the request once mounted.
type pageState struct {
	phase pagePhase
	page  string
	lang  i18n.Language
	table i18n.Table
	store storage.Store
	user  *session.Session
	flash string
	path  string
	form  *formState
}

type languageLink struct {
	Code   string
	Label  string
	Href   string
	Active bool
}

// pageData is the template view of a pageState.
type pageData struct {
	Lang      string
	Page      string
	Tr        i18n.Table
	User      *session.Session
	Flash     string
	Languages []languageLink
	Form      *formState
	About     []aboutSection
	Version   string
}

// mount resolves language, session and pending notice for page. The state only
// becomes ready when all of them were read.
func (s *site) mount(r *http.Request, page string) *pageState {
	state := &pageState{phase: phaseInitializing, page: page, path: r.URL.Path}
	ctx := r.Context()
	lang := langroute.FromContext(ctx)
	store, ok := storage.FromContext(ctx)
	if lang == "" || !ok {
		return state
	}
	state.lang = lang
	state.table = s.catalog.Table(lang)
	state.store = store
	if sess, found := s.sessions(store).Load(ctx); found {
		state.user = &sess
	}
	state.flash = s.takeFlash(ctx, store, state.table)
	state.phase = phaseReady
	return state
}

func (s *site) sessions(store storage.Store) *session.Store {
	return session.NewStore(store).OnCorrupt(s.onCorrupt)
}

func (s *site) takeFlash(ctx context.Context, store storage.Store, table i18n.Table) string {
	key, found, err := store.Get(ctx, storage.KeyFlash)
	if err != nil || !found {
		return ""
	}
	if err := store.Remove(ctx, storage.KeyFlash); err != nil {
		logger.Get().Warn().Err(err).Msg("failed to clear flash notice")
	}
	return table.T(key)
}

func (s *site) setFlash(ctx context.Context, store storage.Store, key string) {
	if err := store.Set(ctx, storage.KeyFlash, key); err != nil {
		logger.Get().Warn().Err(err).Str("flash", key).Msg("failed to store flash notice")
	}
}

func (s *site) data(state *pageState) pageData {
	options := s.catalog.Options(state.lang)
	links := make([]languageLink, 0, len(options))
	for _, option := range options {
		links = append(links, languageLink{
			Code:   string(option.Code),
			Label:  state.table.T(option.LabelKey),
			Href:   "/" + string(state.lang) + "/switch/" + string(option.Code) + "?next=" + url.QueryEscape(state.path),
			Active: option.Active,
		})
	}
	data := pageData{
		Lang:      string(state.lang),
		Page:      state.page,
		Tr:        state.table,
		User:      state.user,
		Flash:     state.flash,
		Languages: links,
		Form:      state.form,
		Version:   version.Version,
	}
	if state.page == pageAbout {
		data.About = s.about[state.lang]
	}
	return data
}

// render writes the page with status. Rendering a page that never became ready is a bug
// and answers 500.
func (s *site) render(w http.ResponseWriter, r *http.Request, state *pageState, status int) {
	requestID := middleware.GetRequestID(r.Context())
	if state.phase != phaseReady {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, errPageNotReady).
			Str("request_id", requestID).
			Str("page", state.page).
			Msg("page not ready")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	tmpl, ok := s.pages[state.page]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", s.data(state)); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", requestID).
			Str("page", state.page).
			Msg("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", string(state.lang))
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Get().Error().Err(err).Str("request_id", requestID).Msg("failed to write page")
	}
}

func (s *site) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.mount(r, pageHome), http.StatusOK)
}

func (s *site) aboutPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.mount(r, pageAbout), http.StatusOK)
}

func (s *site) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.mount(r, pageNotFound), http.StatusNotFound)
}

// switchLanguage persists the target language and sends the browser to the same page
// in that language.
func (s *site) switchLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := langroute.FromContext(ctx)
	target, ok := s.catalog.Parse(chi.URLParam(r, "target"))
	if !ok {
		http.Redirect(w, r, "/"+string(current), http.StatusFound)
		return
	}
	if store, found := storage.FromContext(ctx); found {
		if err := store.Set(ctx, storage.KeyLanguage, string(target)); err != nil {
			logger.Get().Warn().Err(err).Str("language", string(target)).Msg("failed to persist language")
		}
	}
	next := langroute.SwitchPath(r.URL.Query().Get("next"), current, target)
	logger.LanguageEvent(string(current), string(target), "switch").
		Str("request_id", middleware.GetRequestID(ctx)).
		Msg("language switched")
	http.Redirect(w, r, next, http.StatusSeeOther)
}
