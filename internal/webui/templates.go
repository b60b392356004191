// ABOUTME: Template loading and rendering for the web UI
// ABOUTME: Parses every page with base.html once and renders the profile bio as markdown

package webui

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
	"github.com/2389/personal-crm/internal/validate"
)

// Page template names.
const (
	pageList          = "list.html"
	pageForm          = "form.html"
	pageConfirmDelete = "confirm_delete.html"
	pageProfile       = "profile.html"
	pageProfileForm   = "profile_form.html"
)

// pageData is shared by every page; each template reads the fields it needs.
type pageData struct {
	Title     string
	Flash     string
	FlashWarn bool
	CSRFToken string
	// Query is the list search to return to after a client page.
	Query string

	List    *crm.ListState
	Client  *store.Client
	ID      int64
	Input   any
	Errors  map[string][]string
	Profile *store.Profile
	Bio     template.HTML
}

// parsePages parses each page together with the base layout.
func parsePages() map[string]*template.Template {
	pages := make(map[string]*template.Template)
	for _, name := range []string{pageList, pageForm, pageConfirmDelete, pageProfile, pageProfileForm} {
		pages[name] = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name))
	}
	return pages
}

// render executes a page into a buffer first so a template error becomes a clean 500.
func (u *UI) render(w http.ResponseWriter, status int, page string, data pageData) error {
	tmpl, ok := u.pages[page]
	if !ok {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		u.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// renderBio converts the markdown bio to HTML. The placeholder is shown as text.
func (u *UI) renderBio(bio string) template.HTML {
	if bio == "" || bio == store.NoInformation {
		return template.HTML(template.HTMLEscapeString(store.NoInformation))
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(bio), &buf); err != nil {
		u.logger.Error("failed to convert markdown", "error", err)
		return template.HTML(template.HTMLEscapeString(bio))
	}
	// goldmark omits raw HTML by default, so the output is safe to embed.
	return template.HTML(buf.String())
}

// fieldErrors groups violation messages by field for the form templates.
func fieldErrors(violations []validate.Violation) map[string][]string {
	if len(violations) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, v := range violations {
		out[v.Field] = append(out[v.Field], v.Message())
	}
	return out
}

// formValue hides the placeholder so the edit form starts blank for unsaved fields.
func formValue(v string) string {
	if v == store.NoInformation {
		return ""
	}
	return v
}
