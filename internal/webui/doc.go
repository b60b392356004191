// Package webui serves the HTML front end: the searchable client list, the
// client form, the delete confirmation page and the personal profile.
//
// Every request builds a crm.Dispatcher whose Presenter writes to that
// request's ResponseWriter. Successful writes redirect (post/redirect/get)
// with the feedback message in the query string; rejected writes re-render
// the form with the violations next to each field.
//
// # Security
//
// State-changing routes are POST only and protected by a double-submit CSRF
// cookie. Templates are html/template, and the profile bio is rendered with
// goldmark, which drops raw HTML unless told otherwise.
//
// # Templates
//
// Templates are embedded using //go:embed for single-binary deployment. Each
// page is parsed together with templates/base.html at construction time.
package webui
