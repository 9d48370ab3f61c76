// Package session owns the signed-in user, the one-way readiness flag, the
// startup bootstrap against an identity provider, and the page guard.
package session

import (
	"strings"
	"sync"
	"unicode"
)

// User is the identity shown by the client. A nil *User means signed out.
type User struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
	Anonymous   bool
}

// Label is the greeting name: display name, then email, then "User".
func (u *User) Label() string {
	if u == nil {
		return "User"
	}
	if s := strings.TrimSpace(u.DisplayName); s != "" {
		return s
	}
	if s := strings.TrimSpace(u.Email); s != "" {
		return s
	}
	return "User"
}

// Initial is the avatar letter: first letter of the email, else "U".
func (u *User) Initial() string {
	if u == nil {
		return "U"
	}
	for _, r := range strings.TrimSpace(u.Email) {
		return string(unicode.ToUpper(r))
	}
	return "U"
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Snapshot is what subscribers receive on every change.
type Snapshot struct {
	User  *User
	Ready bool
}

type Store struct {
	mu        sync.Mutex
	user      *User
	ready     bool
	nextID    int
	listeners map[int]func(Snapshot)
}

func NewStore() *Store {
	return &Store{}
}

// Current returns a copy of the signed-in user, or nil.
func (s *Store) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.clone()
}

func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{User: s.user.clone(), Ready: s.ready}
}

// MarkReady flips readiness to true. It never reverts.
func (s *Store) MarkReady() {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return
	}
	s.ready = true
	s.publishLocked()
}

// Set overwrites the session. A non-nil user implies readiness.
func (s *Store) Set(u *User) {
	s.mu.Lock()
	s.user = u.clone()
	if u != nil {
		s.ready = true
	}
	s.publishLocked()
}

func (s *Store) Clear() {
	s.Set(nil)
}

// Subscribe registers fn for every change; the returned func unregisters it.
// Listeners run outside the lock, so concurrent writers may deliver their
// snapshots out of order. A listener that needs the latest state should
// re-read Current or Snapshot rather than trust the argument.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]func(Snapshot){}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// publishLocked releases s.mu before calling listeners. Delivery order
// across concurrent writers is not guaranteed.
func (s *Store) publishLocked() {
	snap := Snapshot{User: s.user.clone(), Ready: s.ready}
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(Snapshot{User: snap.User.clone(), Ready: snap.Ready})
	}
}
