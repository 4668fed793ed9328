package profileview

import "strconv"

// DefaultTagLimit is how many tags a card shows before collapsing the rest
// into an overflow badge.
const DefaultTagLimit = 2

// TagSummary is the visible part of a tag list plus how many were hidden.
type TagSummary struct {
	Visible  []string `json:"visible"`
	Overflow int      `json:"overflow"`
}

// Badge returns "+N" for a non-zero overflow, or "".
func (s TagSummary) Badge() string {
	if s.Overflow <= 0 {
		return ""
	}
	return "+" + strconv.Itoa(s.Overflow)
}

// RenderTagSummary returns the first limit tags in their original order and
// the number left out. The input slice is never modified or aliased. A
// negative limit is treated as zero.
func RenderTagSummary(tags []string, limit int) TagSummary {
	if limit < 0 {
		limit = 0
	}
	n := min(len(tags), limit)
	visible := make([]string, n)
	copy(visible, tags[:n])
	return TagSummary{
		Visible:  visible,
		Overflow: max(0, len(tags)-limit),
	}
}
