// Package router tracks which view is displayed. Navigation may be issued
// from background callbacks, so all access is synchronized.
package router

import "sync"

type Route string

const (
	RouteLogin  Route = "/"
	RouteHome   Route = "/home"
	RouteHelper Route = "/ai-helper"
)

// Protected reports whether the route requires a session.
func (r Route) Protected() bool {
	return r == RouteHome || r == RouteHelper
}

func (r Route) Valid() bool {
	switch r {
	case RouteLogin, RouteHome, RouteHelper:
		return true
	}
	return false
}

// Navigator is what flows need to move the user between views.
type Navigator interface {
	Current() Route
	Push(Route)
}

type Router struct {
	mu        sync.Mutex
	current   Route
	nextID    int
	listeners map[int]func(Route)
}

func New(start Route) *Router {
	if !start.Valid() {
		start = RouteLogin
	}
	return &Router{current: start}
}

func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Push switches to route. Unknown routes fall back to the login view.
func (r *Router) Push(route Route) {
	if !route.Valid() {
		route = RouteLogin
	}
	r.mu.Lock()
	if r.current == route {
		r.mu.Unlock()
		return
	}
	r.current = route
	listeners := make([]func(Route), 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(route)
	}
}

func (r *Router) Subscribe(fn func(Route)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = map[int]func(Route){}
	}
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}
