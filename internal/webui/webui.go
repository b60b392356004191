// ABOUTME: HTML front end: client list, client form, delete confirmation and profile pages
// ABOUTME: Handlers dispatch crm commands and render through a per-request presenter

package webui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/2389/personal-crm/internal/crm"
)

// CSRFCookieName is the cookie holding the double-submit CSRF token.
const CSRFCookieName = "crm_csrf"

// maxFormBytes bounds form bodies.
const maxFormBytes = 64 << 10

type csrfKey struct{}

// UI serves the HTML pages.
type UI struct {
	svc    *crm.Service
	pages  map[string]*template.Template
	logger *slog.Logger
}

// New creates a UI over svc. Templates are parsed once here.
func New(svc *crm.Service, logger *slog.Logger) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	return &UI{
		svc:    svc,
		pages:  parsePages(),
		logger: logger.With("component", "webui"),
	}
}

// RegisterRoutes registers all page routes on the given mux
func (u *UI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", u.withCSRF(u.handleList))
	mux.HandleFunc("GET /clients/new", u.withCSRF(u.handleNewClient))
	mux.HandleFunc("POST /clients", u.withCSRF(u.handleCreateClient))
	mux.HandleFunc("GET /clients/{id}/edit", u.withCSRF(u.handleEditClient))
	mux.HandleFunc("POST /clients/{id}", u.withCSRF(u.handleUpdateClient))
	mux.HandleFunc("GET /clients/{id}/delete", u.withCSRF(u.handleConfirmDelete))
	mux.HandleFunc("POST /clients/{id}/delete", u.withCSRF(u.handleDeleteClient))
	mux.HandleFunc("GET /profile", u.withCSRF(u.handleProfile))
	mux.HandleFunc("GET /profile/edit", u.withCSRF(u.handleEditProfile))
	mux.HandleFunc("POST /profile", u.withCSRF(u.handleSaveProfile))

	u.logger.Info("web UI routes registered")
}

// dispatch runs cmd with a presenter bound to this request.
func (u *UI) dispatch(w http.ResponseWriter, r *http.Request, v view, state crm.ListState, cmd crm.Command) {
	p := &htmlPresenter{
		ui:    u,
		w:     w,
		r:     r,
		csrf:  csrfToken(r.Context()),
		view:  v,
		query: r.FormValue("q"),
	}
	d := crm.NewDispatcher(u.svc, p, u.logger)
	if _, err := d.Dispatch(r.Context(), state, cmd); err != nil {
		u.logger.Error("web request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (u *UI) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.Search{Query: q})
}

func (u *UI) handleNewClient(w http.ResponseWriter, r *http.Request) {
	_ = u.render(w, http.StatusOK, pageForm, pageData{
		Title:     "New client",
		CSRFToken: csrfToken(r.Context()),
		Query:     r.URL.Query().Get("q"),
		Input:     crm.ClientInput{},
	})
}

func (u *UI) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	in, ok := u.parseClientForm(w, r)
	if !ok {
		return
	}
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.Create{Input: in})
}

func (u *UI) handleEditClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.Open{ID: id})
}

func (u *UI) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := u.parseClientForm(w, r)
	if !ok {
		return
	}
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.Edit{ID: id, Input: in})
}

func (u *UI) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u.dispatch(w, r, viewConfirmDelete, crm.ListState{}, crm.Open{ID: id})
}

func (u *UI) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.Delete{ID: id})
}

func (u *UI) handleProfile(w http.ResponseWriter, r *http.Request) {
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.ShowProfile{})
}

func (u *UI) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	v := viewProfileForm
	if r.URL.Query().Get("clear") != "" {
		v = viewProfileFormBlank
	}
	u.dispatch(w, r, v, crm.ListState{}, crm.ShowProfile{})
}

func (u *UI) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	in := crm.ProfileInput{
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
		Phone: r.PostFormValue("phone"),
		Bio:   r.PostFormValue("bio"),
	}
	u.dispatch(w, r, viewDefault, crm.ListState{}, crm.SaveProfile{Input: in})
}

func (u *UI) parseClientForm(w http.ResponseWriter, r *http.Request) (crm.ClientInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return crm.ClientInput{}, false
	}
	return crm.ClientInput{
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
		Phone: r.PostFormValue("phone"),
	}, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// withCSRF makes sure a token cookie exists and checks it on POST.
func (u *UI) withCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		}
		if r.Method == http.MethodPost && !validateCSRF(r) {
			u.logger.Warn("CSRF validation failed", "path", r.URL.Path)
			http.Error(w, "invalid CSRF token", http.StatusForbidden)
			return
		}
		r = u.ensureCSRFToken(w, r)
		next(w, r)
	}
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (u *UI) ensureCSRFToken(w http.ResponseWriter, r *http.Request) *http.Request {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return r.WithContext(context.WithValue(r.Context(), csrfKey{}, cookie.Value))
	}

	token, err := generateSecureToken(32)
	if err != nil {
		u.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return r.WithContext(context.WithValue(r.Context(), csrfKey{}, token))
}

// validateCSRF checks the CSRF token from the form against the cookie
func validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}
	return formToken != "" && formToken == cookie.Value
}

func csrfToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// generateSecureToken returns n random bytes hex encoded.
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
