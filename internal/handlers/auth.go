package handlers

import (
	"errors"
	"net/http"

	"langsite/internal/authapi"
	"langsite/internal/httputil"
	"langsite/internal/i18n"
	"langsite/internal/logger"
	"langsite/internal/session"
	"langsite/internal/storage"
	"langsite/internal/validation"
	"langsite/middleware"
)

// formState carries submitted values and localized errors back into the form.
type formState struct {
	Values    map[string]string
	Errors    map[string]string
	PageError string
	// Pending renders the submit control disabled with its in-flight label.
	Pending bool
}

func newFormState() *formState {
	return &formState{Values: map[string]string{}, Errors: map[string]string{}}
}

// Value returns the submitted value of field.
func (f *formState) Value(field string) string {
	return f.Values[field]
}

// Error returns the localized error of field, empty when it passed.
func (f *formState) Error(field string) string {
	return f.Errors[field]
}

func (f *formState) setFieldErrors(errs validation.FieldErrors, table i18n.Table) {
	for field, key := range errs {
		f.Errors[field] = table.T(key)
	}
}

func (s *site) loginPage(w http.ResponseWriter, r *http.Request) {
	state := s.mount(r, pageLogin)
	state.form = newFormState()
	s.render(w, r, state, http.StatusOK)
}

func (s *site) registerPage(w http.ResponseWriter, r *http.Request) {
	state := s.mount(r, pageRegister)
	state.form = newFormState()
	s.render(w, r, state, http.StatusOK)
}

func (s *site) login(w http.ResponseWriter, r *http.Request) {
	state := s.mount(r, pageLogin)
	state.form = newFormState()
	if state.phase != phaseReady {
		s.render(w, r, state, http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		state.form.PageError = state.table.T("auth.loginError")
		s.render(w, r, state, http.StatusBadRequest)
		return
	}
	form := validation.LoginForm{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	state.form.Values["email"] = form.Email

	if errs := validation.ValidateLogin(form); !errs.Empty() {
		state.form.setFieldErrors(errs, state.table)
		s.render(w, r, state, http.StatusUnprocessableEntity)
		return
	}

	release, ok := s.guard.acquire(s.clientKey(r, pageLogin))
	if !ok {
		s.rejectInFlight(w, r, state)
		return
	}
	defer release()

	sess, err := s.auth.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		s.authFailed(w, r, state, err, "auth.loginError")
		return
	}
	s.signedIn(w, r, state, sess, "auth.loginSuccess", "auth.loginError")
}

func (s *site) register(w http.ResponseWriter, r *http.Request) {
	state := s.mount(r, pageRegister)
	state.form = newFormState()
	if state.phase != phaseReady {
		s.render(w, r, state, http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		state.form.PageError = state.table.T("auth.registerError")
		s.render(w, r, state, http.StatusBadRequest)
		return
	}
	form := validation.RegisterForm{
		Name:            r.PostForm.Get("name"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
	}
	state.form.Values["name"] = form.Name
	state.form.Values["email"] = form.Email

	if errs := validation.ValidateRegister(form); !errs.Empty() {
		state.form.setFieldErrors(errs, state.table)
		s.render(w, r, state, http.StatusUnprocessableEntity)
		return
	}

	release, ok := s.guard.acquire(s.clientKey(r, pageRegister))
	if !ok {
		s.rejectInFlight(w, r, state)
		return
	}
	defer release()

	sess, err := s.auth.Register(r.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		s.authFailed(w, r, state, err, "auth.registerError")
		return
	}
	s.signedIn(w, r, state, sess, "auth.registerSuccess", "auth.registerError")
}

func (s *site) logout(w http.ResponseWriter, r *http.Request) {
	state := s.mount(r, pageHome)
	if state.phase != phaseReady {
		s.render(w, r, state, http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	if err := s.sessions(state.store).Clear(ctx); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(ctx)).
			Msg("failed to clear session")
	} else {
		s.setFlash(ctx, state.store, "auth.logoutSuccess")
	}
	http.Redirect(w, r, "/"+string(state.lang), http.StatusSeeOther)
}

func (s *site) signedIn(w http.ResponseWriter, r *http.Request, state *pageState, sess session.Session, successKey, failureKey string) {
	ctx := r.Context()
	if err := s.sessions(state.store).Save(ctx, sess); err != nil {
		logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
			Str("request_id", middleware.GetRequestID(ctx)).
			Msg("failed to persist session")
		state.form.PageError = state.table.T(failureKey)
		s.render(w, r, state, http.StatusInternalServerError)
		return
	}
	s.setFlash(ctx, state.store, successKey)
	http.Redirect(w, r, "/"+string(state.lang), http.StatusSeeOther)
}

// authFailed re-renders the form with the service's message when it sent one, else the
// localized fallback. Nothing is persisted.
func (s *site) authFailed(w http.ResponseWriter, r *http.Request, state *pageState, err error, fallbackKey string) {
	status := http.StatusUnprocessableEntity
	message := state.table.T(fallbackKey)

	var authErr *authapi.AuthError
	var transportErr *authapi.TransportError
	switch {
	case errors.As(err, &authErr):
		if authErr.Message != "" {
			message = authErr.Message
		}
	case errors.As(err, &transportErr):
		status = http.StatusBadGateway
		message = state.table.T("auth.networkError")
	}
	logger.HTTPEvent(r.Method, r.URL.Path, status, 0).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Err(err).
		Msg("authentication failed")
	state.form.PageError = message
	s.render(w, r, state, status)
}

func (s *site) rejectInFlight(w http.ResponseWriter, r *http.Request, state *pageState) {
	state.form.PageError = state.table.T("auth.submissionInFlight")
	state.form.Pending = true
	s.render(w, r, state, http.StatusTooManyRequests)
}

// clientKey identifies the browser for the submission guard. The storage providers
// issue a client ID to every browser; the address is only used when no provider did.
func (s *site) clientKey(r *http.Request, operation string) string {
	if id, ok := storage.ClientIDFromRequest(r); ok {
		return operation + "|client:" + id
	}
	return operation + "|ip:" + httputil.ClientIP(r, s.trustProxy)
}
