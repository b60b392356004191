// ABOUTME: crm.Presenter that renders outcomes as HTML pages or redirects
// ABOUTME: One presenter is created per request and writes to that request's response

package webui

import (
	"context"
	"net/http"
	"net/url"

	"github.com/2389/personal-crm/internal/crm"
)

// view selects which page an Open or ShowProfile outcome renders.
type view int

const (
	viewDefault view = iota
	viewConfirmDelete
	viewProfileForm
	viewProfileFormBlank
)

type htmlPresenter struct {
	ui    *UI
	w     http.ResponseWriter
	r     *http.Request
	csrf  string
	view  view
	query string
}

var _ crm.Presenter = (*htmlPresenter)(nil)

// Present renders o. Successful writes redirect so a reload does not resubmit.
func (p *htmlPresenter) Present(_ context.Context, o crm.Outcome) error {
	switch c := o.Command.(type) {
	case crm.Search:
		flash, warn := flashFrom(p.r)
		return p.ui.render(p.w, http.StatusOK, pageList, pageData{
			Title:     "Clients",
			Flash:     flash,
			FlashWarn: warn,
			Query:     o.List.Query,
			List:      o.List,
		})

	case crm.Create:
		if o.Rejected() {
			return p.renderClientForm(0, c.Input, o)
		}
		p.redirect("/", o.Feedback, p.query)

	case crm.Edit:
		if o.Rejected() {
			return p.renderClientForm(c.ID, c.Input, o)
		}
		p.redirect("/", o.Feedback, p.query)

	case crm.Delete:
		p.redirect("/", o.Feedback, p.query)

	case crm.Open:
		if o.Client == nil {
			p.redirect("/", o.Feedback, p.query)
			return nil
		}
		if p.view == viewConfirmDelete {
			return p.ui.render(p.w, http.StatusOK, pageConfirmDelete, pageData{
				Title:     "Delete client",
				CSRFToken: p.csrf,
				Query:     p.query,
				Client:    o.Client,
			})
		}
		return p.ui.render(p.w, http.StatusOK, pageForm, pageData{
			Title:     "Edit client",
			CSRFToken: p.csrf,
			Query:     p.query,
			ID:        o.Client.ID,
			Input: crm.ClientInput{
				Name:  o.Client.Name,
				Email: o.Client.Email,
				Phone: o.Client.Phone,
			},
		})

	case crm.ShowProfile:
		switch p.view {
		case viewProfileForm:
			return p.ui.render(p.w, http.StatusOK, pageProfileForm, pageData{
				Title:     "Edit profile",
				CSRFToken: p.csrf,
				Input: crm.ProfileInput{
					Name:  formValue(o.Profile.Name),
					Email: formValue(o.Profile.Email),
					Phone: formValue(o.Profile.Phone),
					Bio:   formValue(o.Profile.Bio),
				},
			})
		case viewProfileFormBlank:
			return p.ui.render(p.w, http.StatusOK, pageProfileForm, pageData{
				Title:     "Edit profile",
				CSRFToken: p.csrf,
				Input:     crm.ProfileInput{},
			})
		}
		flash, warn := flashFrom(p.r)
		return p.ui.render(p.w, http.StatusOK, pageProfile, pageData{
			Title:     "My profile",
			Flash:     flash,
			FlashWarn: warn,
			Profile:   o.Profile,
			Bio:       p.ui.renderBio(o.Profile.Bio),
		})

	case crm.SaveProfile:
		if o.Rejected() {
			return p.ui.render(p.w, http.StatusUnprocessableEntity, pageProfileForm, pageData{
				Title:     "Edit profile",
				Flash:     o.Feedback,
				FlashWarn: true,
				CSRFToken: p.csrf,
				Input:     c.Input,
				Errors:    fieldErrors(o.Violations),
			})
		}
		p.redirect("/profile", o.Feedback, "")
	}
	return nil
}

func (p *htmlPresenter) renderClientForm(id int64, in crm.ClientInput, o crm.Outcome) error {
	errs := fieldErrors(o.Violations)
	if o.DuplicateField != "" {
		if errs == nil {
			errs = make(map[string][]string)
		}
		errs[o.DuplicateField] = append(errs[o.DuplicateField], o.Feedback)
	}
	title := "New client"
	if id != 0 {
		title = "Edit client"
	}
	return p.ui.render(p.w, http.StatusUnprocessableEntity, pageForm, pageData{
		Title:     title,
		Flash:     o.Feedback,
		FlashWarn: true,
		CSRFToken: p.csrf,
		Query:     p.query,
		ID:        id,
		Input:     in,
		Errors:    errs,
	})
}

// redirect sends the browser to path, carrying the flash message and list query.
func (p *htmlPresenter) redirect(path, feedback, query string) {
	params := url.Values{}
	if feedback != "" {
		params.Set("flash", feedback)
	}
	if query != "" {
		params.Set("q", query)
	}
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	http.Redirect(p.w, p.r, target, http.StatusSeeOther)
}

// flashes lists the messages a redirect may carry; anything else is ignored.
var flashes = map[string]bool{
	crm.FeedbackClientSaved:    false,
	crm.FeedbackClientDeleted:  false,
	crm.FeedbackProfileSaved:   false,
	crm.FeedbackClientNotFound: true,
}

// flashFrom returns the flash message from the query string and whether it is a warning.
func flashFrom(r *http.Request) (string, bool) {
	msg := r.URL.Query().Get("flash")
	warn, ok := flashes[msg]
	if !ok {
		return "", false
	}
	return msg, warn
}
