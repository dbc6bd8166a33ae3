package services

import "vantage/internal/domain"

// History is a linear back/forward stack of visited paths with a
// cursor. It is not safe for concurrent use; the view store guards it.
type History struct {
	entries []string
	index   int
}

// NewHistory creates an empty history. The cursor is valid as soon as
// the first navigation lands.
func NewHistory() *History {
	return &History{index: -1}
}

// NavigateTo records a visit: forward entries beyond the cursor are
// truncated, the normalized path is appended, and the cursor advances.
// Navigating to the current path still appends; every navigation is a
// distinct history event.
func (h *History) NavigateTo(path string) string {
	norm := domain.NormalizePath(path)

	if h.index >= 0 && h.index < len(h.entries)-1 {
		h.entries = h.entries[:h.index+1]
	}
	h.entries = append(h.entries, norm)
	h.index = len(h.entries) - 1
	return norm
}

// Back moves the cursor one entry back. No-op at the oldest entry.
func (h *History) Back() (string, bool) {
	if !h.CanGoBack() {
		return h.Current(), false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward moves the cursor one entry forward. No-op at the newest
// entry.
func (h *History) Forward() (string, bool) {
	if !h.CanGoForward() {
		return h.Current(), false
	}
	h.index++
	return h.entries[h.index], true
}

// CanGoBack reports whether Back would move the cursor.
func (h *History) CanGoBack() bool {
	return h.index > 0
}

// CanGoForward reports whether Forward would move the cursor.
func (h *History) CanGoForward() bool {
	return h.index >= 0 && h.index < len(h.entries)-1
}

// Current returns the path under the cursor, or "" before the first
// navigation.
func (h *History) Current() string {
	if h.index < 0 || h.index >= len(h.entries) {
		return ""
	}
	return h.entries[h.index]
}

// Entries returns a copy of the visited paths, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Index returns the cursor position, -1 before the first navigation.
func (h *History) Index() int {
	return h.index
}
