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

// Package corpus holds the controller's ground-truth list of indexed
// items plus the auxiliary filename indices that accelerate plain
// (non-wildcard, non-path) queries.
package corpus

import (
	"strings"
)

// UnknownModTime is the sentinel used when a dirwalk entry's mtime
// could not be determined.
const UnknownModTime int64 = -1 << 63

// SearchItem is one indexed path. Once created it is only ever
// replaced wholesale, never mutated in place.
type SearchItem struct {
	Path             string
	ModifiedUnixSecs int64
}

// DeltaCounts reports how many items a delta application affected:
// deletions that removed something, and upserts split into added
// versus updated.
type DeltaCounts struct {
	Added   int
	Updated int
	Deleted int
}

// Corpus is the canonical in-memory item list plus its two filename
// indices. Construct it with New: the zero value has nil maps and is
// not ready to use.
type Corpus struct {
	items []SearchItem

	pathIndex map[string]int // path -> items index, for O(1) upsert/delete

	filenameExact  map[string][]int
	filenamePrefix map[string][]int

	dirty         bool
	rebuildCursor int
	rebuildBatch  int
}

// New returns an empty, clean corpus. rebuildBatch bounds how many
// items Rebuild processes per call.
func New(rebuildBatch int) *Corpus {
	if rebuildBatch <= 0 {
		rebuildBatch = 1000
	}
	return &Corpus{
		pathIndex:      make(map[string]int),
		filenameExact:  make(map[string][]int),
		filenamePrefix: make(map[string][]int),
		rebuildBatch:   rebuildBatch,
	}
}

func filenameOf(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func prefixKey(lowerFilename string) string {
	n := len(lowerFilename)
	if n > 3 {
		n = 3
	}
	return lowerFilename[:n]
}

// Len reports the number of items currently in the corpus.
func (c *Corpus) Len() int { return len(c.items) }

// Items returns the corpus's items. Callers must not mutate the slice.
func (c *Corpus) Items() []SearchItem { return c.items }

// Dirty reports whether the filename index is stale; callers must
// fall back to the search worker's slow scan while this is true.
func (c *Corpus) Dirty() bool { return c.dirty }

// Replace discards all items and installs items fresh, e.g. from a
// SnapshotLoaded or a full-enumeration Done event.
func (c *Corpus) Replace(items []SearchItem) {
	c.items = append([]SearchItem(nil), items...)
	c.pathIndex = make(map[string]int, len(items))
	for i, it := range c.items {
		c.pathIndex[it.Path] = i
	}
	c.markDirty()
}

// ApplyDelta upserts U and removes D: every path in D ends up
// absent; every item in U is present
// exactly once; the returned counts partition U into added vs updated
// and count the deletions that actually removed something.
func (c *Corpus) ApplyDelta(upserts []SearchItem, deletedPaths []string) DeltaCounts {
	var counts DeltaCounts

	for _, path := range deletedPaths {
		if c.removePath(path) {
			counts.Deleted++
		}
	}

	for _, item := range upserts {
		if idx, ok := c.pathIndex[item.Path]; ok {
			c.items[idx] = item
			counts.Updated++
		} else {
			c.items = append(c.items, item)
			c.pathIndex[item.Path] = len(c.items) - 1
			counts.Added++
		}
	}

	if counts.Added > 0 || counts.Deleted > 0 || counts.Updated > 0 {
		c.markDirty()
	}
	return counts
}

// removePath deletes the item at path, if present, via swap-with-last
// to keep the index O(1); it reports whether anything was removed.
func (c *Corpus) removePath(path string) bool {
	idx, ok := c.pathIndex[path]
	if !ok {
		return false
	}
	last := len(c.items) - 1
	if idx != last {
		c.items[idx] = c.items[last]
		c.pathIndex[c.items[idx].Path] = idx
	}
	c.items = c.items[:last]
	delete(c.pathIndex, path)
	return true
}

func (c *Corpus) markDirty() {
	c.dirty = true
	c.rebuildCursor = 0
}

// Rebuild advances the incremental filename-index build by one batch.
// It returns true once the index has caught up to the full item list
// and is no longer dirty.
func (c *Corpus) Rebuild() bool {
	if !c.dirty {
		return true
	}
	if c.rebuildCursor == 0 {
		c.filenameExact = make(map[string][]int)
		c.filenamePrefix = make(map[string][]int)
	}

	end := c.rebuildCursor + c.rebuildBatch
	if end > len(c.items) {
		end = len(c.items)
	}
	for i := c.rebuildCursor; i < end; i++ {
		lower := strings.ToLower(filenameOf(c.items[i].Path))
		c.filenameExact[lower] = append(c.filenameExact[lower], i)
		if lower != "" {
			key := prefixKey(lower)
			c.filenamePrefix[key] = append(c.filenamePrefix[key], i)
		}
	}
	c.rebuildCursor = end

	if c.rebuildCursor >= len(c.items) {
		c.dirty = false
		return true
	}
	return false
}

// containsFastPathBreaker reports whether query contains any of the
// characters that force the slow scan path.
func containsFastPathBreaker(query string) bool {
	return strings.ContainsAny(query, `*?\/:`)
}

// LookupExact returns items whose filename equals query exactly
// (ASCII case-insensitive), if the fast path is usable.
func (c *Corpus) LookupExact(query string) ([]SearchItem, bool) {
	if c.dirty || query == "" || containsFastPathBreaker(query) {
		return nil, false
	}
	idxs := c.filenameExact[strings.ToLower(query)]
	out := make([]SearchItem, len(idxs))
	for i, idx := range idxs {
		out[i] = c.items[idx]
	}
	return out, true
}

// LookupPrefixSubstring narrows candidates via the 3-char prefix map,
// then performs an ASCII-case-insensitive substring test against each
// candidate's filename, if the fast path is usable.
func (c *Corpus) LookupPrefixSubstring(query string) ([]SearchItem, bool) {
	if c.dirty || query == "" || containsFastPathBreaker(query) {
		return nil, false
	}
	lower := strings.ToLower(query)
	idxs := c.filenamePrefix[prefixKey(lower)]
	var out []SearchItem
	for _, idx := range idxs {
		item := c.items[idx]
		if strings.Contains(strings.ToLower(filenameOf(item.Path)), lower) {
			out = append(out, item)
		}
	}
	return out, true
}

// CheckInvariants panics if the filename index has drifted from the
// item list while clean. The index must either be consistent or be
// marked dirty; there is no third state.
func (c *Corpus) CheckInvariants() {
	if c.dirty {
		return
	}
	for lower, idxs := range c.filenameExact {
		for _, idx := range idxs {
			if idx >= len(c.items) {
				panic("corpus: dangling filename_exact index")
			}
			if strings.ToLower(filenameOf(c.items[idx].Path)) != lower {
				panic("corpus: filename_exact entry does not match its item")
			}
		}
	}
}
