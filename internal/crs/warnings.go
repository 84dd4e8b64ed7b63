package crs

import "strings"

// WarningSeparator joins accumulated warnings.
const WarningSeparator = " | "

// Warnings accumulates non-fatal notices in first-seen order, dropping
// duplicates.
type Warnings struct {
	items []string
}

// Add records each non-empty warning not already present.
func (w *Warnings) Add(msgs ...string) {
	for _, m := range msgs {
		if m == "" || w.Has(m) {
			continue
		}
		w.items = append(w.items, m)
	}
}

// Has reports whether msg was recorded.
func (w *Warnings) Has(msg string) bool {
	for _, it := range w.items {
		if it == msg {
			return true
		}
	}
	return false
}

// Len returns the number of distinct warnings.
func (w *Warnings) Len() int {
	return len(w.items)
}

// Items returns a copy of the recorded warnings.
func (w *Warnings) Items() []string {
	return append([]string(nil), w.items...)
}

func (w *Warnings) String() string {
	return strings.Join(w.items, WarningSeparator)
}
