package crawler

import "sync"

// session holds the mutable state of one crawl run: the visited set and the
// emitted-page counter, shared by all workers. All checks are atomic
// check-and-act operations so racing workers cannot double-fetch a URL or
// overshoot the page budget.
type session struct {
	mu           sync.Mutex
	visited      map[string]bool
	pagesEmitted int
	maxPages     int
}

func newSession(maxPages int) *session {
	return &session{
		visited:  make(map[string]bool),
		maxPages: maxPages,
	}
}

// markVisited records the URL and reports whether this caller was first.
func (s *session) markVisited(normalizedURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.visited[normalizedURL] {
		return false
	}
	s.visited[normalizedURL] = true
	return true
}

// tryEmit increments the emitted-page counter unless the budget is spent.
func (s *session) tryEmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxPages > 0 && s.pagesEmitted >= s.maxPages {
		return false
	}
	s.pagesEmitted++
	return true
}

// limitReached reports whether the page budget is spent.
func (s *session) limitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxPages > 0 && s.pagesEmitted >= s.maxPages
}

// emitted returns the number of pages emitted so far.
func (s *session) emitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagesEmitted
}
