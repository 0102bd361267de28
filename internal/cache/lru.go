// Package cache provides the in-process cache for dashboard responses: a
// generic LRU with TTL, plus per-user versions used to invalidate every
// cached view of a user in one step.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func NewLRU[T any](maxSize int, ttl time.Duration) *LRU[T] {
	return &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.data, true
}

func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, data: data, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

// CleanExpired drops every expired entry and reports how many were removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Versions tracks a monotonic counter per user. Cache keys embed the counter,
// so bumping it orphans every key built for the old version; the orphans age
// out of the LRU by TTL and eviction.
type Versions struct {
	mu       sync.Mutex
	counters map[int64]uint64
}

func NewVersions() *Versions {
	return &Versions{counters: make(map[int64]uint64)}
}

// Bump invalidates all cached views for the user.
func (v *Versions) Bump(userID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.counters[userID]++
}

// Key builds a cache key that changes whenever the user's version changes.
func (v *Versions) Key(userID int64, suffix string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fmt.Sprintf("%d:%d:%s", userID, v.counters[userID], suffix)
}
