package profileview

import (
	"strings"
	"unicode"

	"github.com/kalambet/devfolio/internal/projects"
)

// EmptyPlaceholder is shown in place of cards when a section has none.
const EmptyPlaceholder = "No projects to display"

// DefaultDescriptionLimit is the card description length in runes.
const DefaultDescriptionLimit = 160

const ellipsis = "…"

// Section titles.
const (
	OwnedTitle        = "Projects"
	CollaboratedTitle = "Collaborated Projects"
)

// Limits controls how much of each project a card shows.
type Limits struct {
	Tags        int
	Description int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{Tags: DefaultTagLimit, Description: DefaultDescriptionLimit}
}

// Card is the renderable summary of one project.
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"img,omitempty"`
	Tags        TagSummary `json:"tags"`
}

// Section is one titled list of cards. When Empty is set, Placeholder is
// rendered instead of the (zero-length) Cards.
type Section struct {
	Title       string `json:"title"`
	Cards       []Card `json:"cards"`
	Empty       bool   `json:"empty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// BuildSection derives a section from a project collection. Owned and
// collaborated projects go through the same routine.
func BuildSection(title string, items []projects.Summary, limits Limits) Section {
	s := Section{Title: title, Cards: make([]Card, 0, len(items))}
	for _, p := range items {
		s.Cards = append(s.Cards, Card{
			ID:          p.ID,
			Title:       p.Title,
			Description: TruncateDescription(p.Description, limits.Description),
			Image:       p.Image,
			Tags:        RenderTagSummary(p.Tags, limits.Tags),
		})
	}
	if len(s.Cards) == 0 {
		s.Empty = true
		s.Placeholder = EmptyPlaceholder
	}
	return s
}

// TruncateDescription shortens s to at most limit runes, preferring to cut
// at a word boundary, and appends an ellipsis when anything was removed.
// A non-positive limit disables truncation.
func TruncateDescription(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := runes[:limit]
	// Back up to the last space unless that would drop more than half.
	for i := len(cut) - 1; i > limit/2; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	out := strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if out == "" {
		// At least one rune of the description stays visible.
		out = strings.TrimRightFunc(string(cut), unicode.IsSpace)
	}
	return out + ellipsis
}
