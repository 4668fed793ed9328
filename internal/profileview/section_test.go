package profileview

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kalambet/devfolio/internal/projects"
)

func TestBuildSection_Empty(t *testing.T) {
	for _, items := range [][]projects.Summary{nil, {}} {
		s := BuildSection(OwnedTitle, items, DefaultLimits())
		if !s.Empty {
			t.Error("expected Empty section")
		}
		if s.Placeholder != EmptyPlaceholder {
			t.Errorf("Placeholder = %q, want %q", s.Placeholder, EmptyPlaceholder)
		}
		if s.Cards == nil || len(s.Cards) != 0 {
			t.Errorf("Cards = %#v, want empty non-nil", s.Cards)
		}
		if s.Title != OwnedTitle {
			t.Errorf("Title = %q", s.Title)
		}
	}
}

func TestBuildSection_Cards(t *testing.T) {
	items := []projects.Summary{
		{ID: "p1", Title: "Chat app", Description: "Realtime chat", Image: "https://img/1.png", Tags: []string{"react", "node", "socket.io"}},
		{ID: "p2", Title: "Blog", Tags: []string{}},
	}
	s := BuildSection(CollaboratedTitle, items, Limits{Tags: 2, Description: 160})

	if s.Empty || s.Placeholder != "" {
		t.Errorf("non-empty section marked empty: %+v", s)
	}
	if len(s.Cards) != 2 {
		t.Fatalf("len(Cards) = %d, want 2", len(s.Cards))
	}
	c := s.Cards[0]
	if c.ID != "p1" || c.Title != "Chat app" || c.Image != "https://img/1.png" {
		t.Errorf("card fields not carried over: %+v", c)
	}
	if c.Tags.Badge() != "+1" || len(c.Tags.Visible) != 2 {
		t.Errorf("tags = %+v, want 2 visible and +1", c.Tags)
	}
	if s.Cards[1].Tags.Overflow != 0 || len(s.Cards[1].Tags.Visible) != 0 {
		t.Errorf("empty tags = %+v", s.Cards[1].Tags)
	}
}

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "short", in: "A small tool", limit: 160, want: "A small tool"},
		{name: "exact", in: "abcde", limit: 5, want: "abcde"},
		{name: "word boundary", in: "alpha beta gamma delta", limit: 12, want: "alpha beta…"},
		{name: "no space", in: "abcdefghij", limit: 4, want: "abcd…"},
		{name: "trailing punctuation", in: "one, two, three", limit: 9, want: "one, two…"},
		{name: "disabled", in: "alpha beta gamma", limit: 0, want: "alpha beta gamma"},
		{name: "trims", in: "  padded  ", limit: 20, want: "padded"},
		{name: "only punctuation fits", in: "!abc", limit: 1, want: "!…"},
		{name: "punctuation run", in: "?!... tail", limit: 3, want: "?!.…"},
		{name: "single rune", in: "abc", limit: 1, want: "a…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateDescription(tt.in, tt.limit); got != tt.want {
				t.Errorf("TruncateDescription(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncateDescription_MultiByte(t *testing.T) {
	in := strings.Repeat("日本語", 10)
	got := TruncateDescription(in, 7)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "…")); n != 7 {
		t.Errorf("kept %d runes, want 7", n)
	}
}
