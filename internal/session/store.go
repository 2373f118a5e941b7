// Package session keeps one form page per visitor.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vbonduro/ecoleta/internal/form"
)

// Store maps session ids to pages. A page is closed as soon as it leaves
// the store, whether it expired, was pushed out by capacity or was removed.
type Store struct {
	pages *expirable.LRU[string, *form.Page]
}

// New returns a store holding at most capacity pages, each discarded after
// ttl without activity. Zero means no limit for either.
func New(capacity int, ttl time.Duration) *Store {
	return &Store{
		pages: expirable.NewLRU[string, *form.Page](capacity, func(_ string, p *form.Page) {
			p.Close()
		}, ttl),
	}
}

// Add stores page under a new random id and returns the id.
func (s *Store) Add(page *form.Page) string {
	id := uuid.NewString()
	s.pages.Add(id, page)
	return id
}

// Get returns the page for id and restarts its idle timer.
func (s *Store) Get(id string) (*form.Page, bool) {
	page, ok := s.pages.Get(id)
	if !ok {
		return nil, false
	}
	if page.Closed() {
		s.pages.Remove(id)
		return nil, false
	}
	s.pages.Add(id, page)
	return page, true
}

// Remove closes and forgets the page for id, if any.
func (s *Store) Remove(id string) {
	s.pages.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.pages.Len()
}

// Purge closes and forgets every page.
func (s *Store) Purge() {
	s.pages.Purge()
}
