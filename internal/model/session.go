package model

import "time"

// Session tracks product variety for one best-effort client identity:
// the last detected category, the names of products already shown, and
// when the session was last used. Identity for the shown-set is the
// product display name; two distinct products sharing a name collide.
type Session struct {
	LastTouched  time.Time
	LastCategory Category
	shownOrder   []string
	shownSet     map[string]struct{}
}

// NewSession creates an empty session touched now.
func NewSession(now time.Time) *Session {
	return &Session{
		LastCategory: CategoryNone,
		LastTouched:  now,
		shownSet:     make(map[string]struct{}),
	}
}

// HasShown reports whether a product name was already presented.
func (s *Session) HasShown(name string) bool {
	_, ok := s.shownSet[name]
	return ok
}

// MarkShown records a product name as presented. Insertion order is kept
// so the most recent entries survive a reset.
func (s *Session) MarkShown(name string) {
	if s.HasShown(name) {
		return
	}
	s.shownSet[name] = struct{}{}
	s.shownOrder = append(s.shownOrder, name)
}

// ShownCount returns the size of the shown-set.
func (s *Session) ShownCount() int {
	return len(s.shownOrder)
}

// ShownNames returns the shown product names, oldest first.
func (s *Session) ShownNames() []string {
	out := make([]string, len(s.shownOrder))
	copy(out, s.shownOrder)
	return out
}

// ResetShown clears the shown-set except the keepRecent most recently
// added names, so immediate repeats stay excluded while older products
// become eligible again.
func (s *Session) ResetShown(keepRecent int) {
	if keepRecent < 0 {
		keepRecent = 0
	}
	if keepRecent > len(s.shownOrder) {
		keepRecent = len(s.shownOrder)
	}
	recent := s.shownOrder[len(s.shownOrder)-keepRecent:]

	s.shownSet = make(map[string]struct{}, keepRecent)
	s.shownOrder = make([]string, 0, keepRecent)
	for _, name := range recent {
		s.shownSet[name] = struct{}{}
		s.shownOrder = append(s.shownOrder, name)
	}
}

// ClearShown empties the shown-set entirely.
func (s *Session) ClearShown() {
	s.shownSet = make(map[string]struct{})
	s.shownOrder = nil
}
