// Copyright 2025 The WizMini Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lrucache implements a size-bounded, least-recently-used
// cache, backing the NTFS Path Materializer's per-volume
// record-id -> materialized-path cache.
package lrucache

import "container/list"

// Sized is implemented by cache values so the cache can bound itself
// by total size rather than by entry count alone.
type Sized interface {
	Size() uint64
}

type entry[K comparable, V Sized] struct {
	key   K
	value V
}

// Cache is a size-bounded LRU keyed by K, holding values V that know
// their own Size().
type Cache[K comparable, V Sized] struct {
	capacity  uint64
	totalSize uint64
	ll        *list.List
	items     map[K]*list.Element
}

func New[K comparable, V Sized](capacity uint64) *Cache[K, V] {
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Insert adds or replaces key's value, evicting least-recently-used
// entries until the cache is back within capacity, and returns the
// evicted values in eviction order.
func (c *Cache[K, V]) Insert(key K, value V) []V {
	if el, ok := c.items[key]; ok {
		old := el.Value.(*entry[K, V])
		c.totalSize -= old.value.Size()
		el.Value = &entry[K, V]{key: key, value: value}
		c.totalSize += value.Size()
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&entry[K, V]{key: key, value: value})
		c.items[key] = el
		c.totalSize += value.Size()
	}

	var evicted []V
	for c.totalSize > c.capacity && c.ll.Len() > 0 {
		back := c.ll.Back()
		e := back.Value.(*entry[K, V])
		c.ll.Remove(back)
		delete(c.items, e.key)
		c.totalSize -= e.value.Size()
		evicted = append(evicted, e.value)
	}
	return evicted
}

// LookUp returns the value for key and marks it most-recently-used,
// or the zero value and false if key is absent.
func (c *Cache[K, V]) LookUp(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Erase removes key if present and returns its value.
func (c *Cache[K, V]) Erase(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	c.ll.Remove(el)
	delete(c.items, key)
	c.totalSize -= e.value.Size()
	return e.value, true
}

// Clear empties the cache in one shot. The Path Materializer calls
// this after any journal batch that changed or deleted records,
// rather than evicting affected entries individually.
func (c *Cache[K, V]) Clear() {
	c.ll = list.New()
	c.items = make(map[K]*list.Element)
	c.totalSize = 0
}

func (c *Cache[K, V]) Len() int {
	return len(c.items)
}

// CheckInvariants panics if the cache's internal bookkeeping has
// diverged: every map entry must have a list element and vice versa,
// and totalSize must equal the sum of entry sizes.
func (c *Cache[K, V]) CheckInvariants() {
	if len(c.items) != c.ll.Len() {
		panic("lrucache: map/list length mismatch")
	}
	var sum uint64
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[K, V])
		if _, ok := c.items[e.key]; !ok {
			panic("lrucache: list entry missing from map")
		}
		sum += e.value.Size()
	}
	if sum != c.totalSize {
		panic("lrucache: totalSize out of sync")
	}
}
