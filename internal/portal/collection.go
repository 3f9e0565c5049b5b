// Package portal holds the application state of a signed-in session: one
// in-memory collection per entity kind, kept as a cache of the remote
// store. A collection only changes after the store confirmed a write, or
// when a bulk fetch replaces it wholesale.
//
// The server uses Loader and the sentinel errors. The collections,
// ActionBoard and ScopedActions serve Go clients that embed the portal and
// keep their own session state; cmd/server does not build them.
package portal

import (
	"slices"
	"sync"
)

// Collection is an ordered, id-keyed list safe for concurrent readers.
// Items hands out copies; callers cannot mutate the cache through them.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) string
}

func NewCollection[T any](id func(T) string) *Collection[T] {
	return &Collection[T]{items: make([]T, 0), id: id}
}

// Reset replaces the whole collection, as after a bulk fetch.
func (c *Collection[T]) Reset(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(make([]T, 0, len(items)), items...)
}

func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Prepend puts item first; used for lists shown newest first.
func (c *Collection[T]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Insert(c.items, 0, item)
}

func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Replace swaps the entry with item's id in place. It reports false when
// no such entry exists.
func (c *Collection[T]) Replace(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(c.id(item))
	if i < 0 {
		return false
	}
	c.items[i] = item
	return true
}

func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

func (c *Collection[T]) index(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool { return c.id(item) == id })
}
