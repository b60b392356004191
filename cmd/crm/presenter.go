// ABOUTME: Terminal crm.Presenter: tables via tabwriter, colors via fatih/color
// ABOUTME: Renders the profile bio as markdown with glamour

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/store"
)

// terminalPresenter prints outcomes for one command invocation.
type terminalPresenter struct {
	out      io.Writer
	renderer *glamour.TermRenderer // nil prints the bio as is

	// rejected is set when the outcome means the command did not do what was asked.
	rejected bool
}

var _ crm.Presenter = (*terminalPresenter)(nil)

func newTerminalPresenter(out io.Writer) *terminalPresenter {
	opt := glamour.WithAutoStyle()
	if color.NoColor {
		opt = glamour.WithStylePath("notty")
	}
	renderer, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(80))
	if err != nil {
		renderer = nil
	}
	return &terminalPresenter{out: out, renderer: renderer}
}

func (p *terminalPresenter) Present(_ context.Context, o crm.Outcome) error {
	switch o.Command.(type) {
	case crm.Search:
		return p.printList(o.List)

	case crm.Create, crm.Edit, crm.SaveProfile:
		if o.Rejected() {
			p.printRejection(o)
			return nil
		}
		p.printFeedback(o.Feedback)
		if o.Client != nil {
			p.printClient(o.Client)
		}
		if o.Profile != nil {
			p.printProfile(o.Profile)
		}

	case crm.Delete:
		p.printFeedback(o.Feedback)

	case crm.Open:
		if o.Client == nil {
			p.printFeedback(o.Feedback)
			p.rejected = true
			return nil
		}
		p.printClient(o.Client)

	case crm.ShowProfile:
		p.printProfile(o.Profile)
	}
	return nil
}

func (p *terminalPresenter) printList(list *crm.ListState) error {
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(p.out)
	if list.Query != "" {
		cyan.Fprintf(p.out, "  Clients matching %q\n", list.Query)
	} else {
		cyan.Fprintln(p.out, "  Clients")
	}
	cyan.Fprintln(p.out, "  -------")

	if len(list.Clients) == 0 {
		fmt.Fprintln(p.out, "  (no clients)")
	} else {
		w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tEMAIL\tPHONE")
		fmt.Fprintln(w, "  --\t----\t-----\t-----")
		for _, c := range list.Clients {
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", c.ID, truncate(c.Name, 32), truncate(c.Email, 40), c.Phone)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(p.out, "\n  Total clients: %d\n\n", list.Total)
	return nil
}

func (p *terminalPresenter) printClient(c *store.Client) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ID:\t%d\n", c.ID)
	fmt.Fprintf(w, "  Name:\t%s\n", c.Name)
	fmt.Fprintf(w, "  Email:\t%s\n", c.Email)
	fmt.Fprintf(w, "  Phone:\t%s\n", c.Phone)
	if !c.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "  Updated:\t%s\n", c.UpdatedAt.Local().Format("Jan 02, 2006 15:04"))
	}
	_ = w.Flush()
}

func (p *terminalPresenter) printProfile(prof *store.Profile) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(p.out)
	cyan.Fprintln(p.out, "  My Profile")
	cyan.Fprintln(p.out, "  ----------")

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Name:\t%s\n", prof.Name)
	fmt.Fprintf(w, "  Email:\t%s\n", prof.Email)
	fmt.Fprintf(w, "  Phone:\t%s\n", prof.Phone)
	_ = w.Flush()

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.renderBio(prof.Bio))
}

// renderBio renders markdown; the placeholder and render failures print verbatim.
func (p *terminalPresenter) renderBio(bio string) string {
	if p.renderer == nil || bio == store.NoInformation {
		return "  " + bio
	}
	out, err := p.renderer.Render(bio)
	if err != nil {
		return "  " + bio
	}
	return strings.TrimRight(out, "\n")
}

func (p *terminalPresenter) printFeedback(msg string) {
	switch msg {
	case "":
		return
	case crm.FeedbackClientNotFound:
		color.New(color.FgYellow).Fprintf(p.out, "  ! %s\n", msg)
	default:
		color.New(color.FgGreen).Fprintf(p.out, "  ✓ %s\n", msg)
	}
}

func (p *terminalPresenter) printRejection(o crm.Outcome) {
	p.rejected = true
	red := color.New(color.FgRed)
	red.Fprintf(p.out, "  ✗ %s\n", o.Feedback)
	for _, v := range o.Violations {
		fmt.Fprintf(p.out, "    %s: %s\n", v.Field, v.Message())
	}
	if o.DuplicateField != "" {
		fmt.Fprintf(p.out, "    %s: %s\n", o.DuplicateField, o.Feedback)
	}
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
