package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kalambet/devfolio/internal/profileview"
)

// RenderOptions tunes RenderPage.
type RenderOptions struct {
	Styles   Styles
	Selected int    // index into the page's cards, owned first; -1 for none
	Spinner  string // shown next to the loading line
	Width    int    // 0 means unbounded
}

// RenderPage draws a page. The interactive model and the plain `view`
// output share it.
func RenderPage(p profileview.Page, opts RenderOptions) string {
	st := opts.Styles
	var b strings.Builder

	b.WriteString(renderHeader(p, st))

	if p.Loading {
		b.WriteString("\n")
		b.WriteString(st.Loading.Render(strings.TrimSpace(opts.Spinner + " Loading projects…")))
		b.WriteString("\n")
	}
	if p.Notice != nil {
		b.WriteString("\n")
		b.WriteString(st.Notice.Render("✗ " + p.Notice.Message))
		b.WriteString("\n")
	}

	b.WriteString(renderSection(p.Owned, 0, opts))
	b.WriteString(renderSection(p.Collaborated, len(p.Owned.Cards), opts))
	return b.String()
}

func renderHeader(p profileview.Page, st Styles) string {
	h := p.Header
	var b strings.Builder

	name := h.Name
	if name == "" {
		name = "(no name)"
	}
	buttons := st.Button.Render("Edit") + " " + st.Button.Render("Connect")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, st.Name.Render(name), "  ", buttons))
	b.WriteString("\n")
	if h.Headline != "" {
		b.WriteString(st.Headline.Render(h.Headline))
		b.WriteString("\n")
	}
	if h.Picture != "" {
		b.WriteString(st.Muted.Render("Avatar: " + h.Picture))
		b.WriteString("\n")
	}

	var contact []string
	if h.Email != "" {
		contact = append(contact, h.Email)
	}
	if h.Organization != "" {
		contact = append(contact, h.Organization)
	}
	if len(contact) > 0 {
		b.WriteString(st.Muted.Render(strings.Join(contact, " · ")))
		b.WriteString("\n")
	}

	if len(h.Skills) > 0 {
		tags := make([]string, len(h.Skills))
		for i, s := range h.Skills {
			tags[i] = st.Tag.Render(s)
		}
		b.WriteString("\n")
		b.WriteString(st.SectionTitle.UnsetMarginTop().Render("Skills"))
		b.WriteString("\n")
		b.WriteString(strings.Join(tags, "  "))
		b.WriteString("\n")
	}
	if h.About != "" {
		b.WriteString("\n")
		b.WriteString(st.SectionTitle.UnsetMarginTop().Render("About"))
		b.WriteString("\n")
		b.WriteString(h.About)
		b.WriteString("\n")
	}
	return b.String()
}

func renderSection(s profileview.Section, offset int, opts RenderOptions) string {
	st := opts.Styles
	var b strings.Builder

	b.WriteString(st.SectionTitle.Render(fmt.Sprintf("%s (%d)", s.Title, len(s.Cards))))
	b.WriteString("\n")
	if s.Empty {
		b.WriteString(st.Placeholder.Render(s.Placeholder))
		b.WriteString("\n")
		return b.String()
	}
	for i, c := range s.Cards {
		style := st.Card
		if offset+i == opts.Selected {
			style = st.SelectedCard
		}
		if opts.Width > 4 {
			style = style.Width(opts.Width - 4)
		}
		b.WriteString(style.Render(renderCard(c, st)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCard(c profileview.Card, st Styles) string {
	lines := []string{st.CardTitle.Render(c.Title)}
	if c.Description != "" {
		lines = append(lines, c.Description)
	}
	if tags := renderTags(c.Tags, st); tags != "" {
		lines = append(lines, tags)
	}
	return strings.Join(lines, "\n")
}

func renderTags(t profileview.TagSummary, st Styles) string {
	parts := make([]string, 0, len(t.Visible)+1)
	for _, tag := range t.Visible {
		parts = append(parts, st.Tag.Render(tag))
	}
	if badge := t.Badge(); badge != "" {
		parts = append(parts, st.Badge.Render(badge))
	}
	return strings.Join(parts, " · ")
}

// CardIDs lists the page's project ids in display order, owned first.
func CardIDs(p profileview.Page) []string {
	ids := make([]string, 0, len(p.Owned.Cards)+len(p.Collaborated.Cards))
	for _, c := range p.Owned.Cards {
		ids = append(ids, c.ID)
	}
	for _, c := range p.Collaborated.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}
