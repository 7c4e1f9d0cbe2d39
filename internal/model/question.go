package model

// OptionLabels are the canonical answer labels, in display order.
var OptionLabels = [4]string{"a", "b", "c", "d"}

// Question is the canonical in-memory form of a trivia question. Options are
// normalized into an ordered 4-tuple and Correct into a single letter when the
// question is loaded; nothing downstream re-derives either.
type Question struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Options     [4]string `json:"options"`
	Correct     string    `json:"-"` // "a".."d", never sent while the question is open
	Category    string    `json:"category"`
	Explanation string    `json:"explanation,omitempty"`
	FlavorText  string    `json:"flavorText,omitempty"`
}

// ValidCategories mirrors the question bank's category set. "all" disables
// filtering.
var ValidCategories = []string{"all", "science", "history", "geography", "sports", "pop culture", "current events"}

// IsValidCategory reports whether cat can be used as a question filter.
func IsValidCategory(cat string) bool {
	for _, c := range ValidCategories {
		if c == cat {
			return true
		}
	}
	return false
}
