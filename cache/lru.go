// Package cache provides a small in-memory LRU for rendered artifact bytes.
// It sits in front of the durable artifact store so hot products do not
// re-read the same PNG from disk on every request.
package cache

import (
	"container/list"
	"sync"
)

type entry struct {
	key     string
	bytes   []byte
	element *list.Element
}

// LRU is a fixed-capacity byte cache, safe for concurrent use. Entries are
// immutable once stored; there is no TTL because rendered artifacts for a
// key never change.
type LRU struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*entry
	order    *list.List
}

// NewLRU creates an LRU holding at most capacity entries.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 128
	}
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*entry, capacity),
		order:    list.New(),
	}
}

// Get returns the bytes stored under key. Callers must not mutate the
// returned slice.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.order.MoveToFront(ent.element)
		return ent.bytes, true
	}
	return nil, false
}

// Add stores bytes under key, evicting the least recently used entry when
// the cache is full. Re-adding an existing key only refreshes its recency.
func (c *LRU) Add(key string, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.order.MoveToFront(ent.element)
		return
	}
	if len(c.items) >= c.capacity {
		c.evictOldest()
	}
	elem := c.order.PushFront(key)
	c.items[key] = &entry{key: key, bytes: b, element: elem}
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge drops all entries.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry, c.capacity)
	c.order.Init()
}

func (c *LRU) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	key := elem.Value.(string)
	if ent, ok := c.items[key]; ok {
		c.order.Remove(ent.element)
		delete(c.items, ent.key)
	}
}
