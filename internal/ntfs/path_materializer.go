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

package ntfs

import (
	"strings"

	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/lrucache"
)

// maxParentHops bounds the parent_id walk: the root
// record is self-referential, but a cycle introduced by a mid-flight
// journal edit must not hang the materializer.
const maxParentHops = 1024

const defaultPathCacheCapacity = 1 << 20 // bytes-ish budget via cacheEntry.Size

type cacheEntry string

func (c cacheEntry) Size() uint64 { return uint64(len(c)) + 16 }

type pathCache = lrucache.Cache[uint64, cacheEntry]

func newPathCache(capacity uint64) *pathCache {
	return lrucache.New[uint64, cacheEntry](capacity)
}

// MaterializePath returns the full drive-prefixed path of recordID,
// walking ParentID up to maxParentHops times and memoizing the result.
// Returns ("", false) if recordID is unknown or the walk exceeds the
// hop bound without reaching the self-referential root.
func (v *VolumeState) MaterializePath(recordID uint64) (string, bool) {
	if cached, ok := v.pathCache.LookUp(recordID); ok {
		return string(cached), true
	}

	node, ok := v.Nodes[recordID]
	if !ok {
		return "", false
	}

	var segments []string
	id := recordID
	n := node
	for hops := 0;; hops++ {
		if hops >= maxParentHops {
			return "", false
		}
		if n.ParentID == id {
			break // self-referential root
		}
		parent, ok := v.Nodes[n.ParentID]
		if !ok {
			return "", false
		}
		segments = append(segments, n.Name)
		id = n.ParentID
		n = parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	path := v.DrivePrefix + strings.Join(segments, `\`)
	v.pathCache.Insert(recordID, cacheEntry(path))
	return path, true
}

// Items materializes every non-directory node's path and populates
// ReverseMap with the result, so the USN Poller's later diff against
// ReverseMap sees the paths a fresh enumeration produced. Called once
// right after Enumerate by the Index Job.
func (v *VolumeState) Items() []corpus.SearchItem {
	out := make([]corpus.SearchItem, 0, len(v.Nodes))
	for id, node := range v.Nodes {
		if node.IsDir {
			continue
		}
		path, ok := v.MaterializePath(id)
		if !ok {
			continue
		}
		v.ReverseMap[id] = path
		out = append(out, corpus.SearchItem{Path: path, ModifiedUnixSecs: node.ModifiedUnixSecs})
	}
	return out
}

// InvalidatePathCache clears the materialized-path cache in one shot.
// The Poller calls this once per journal batch that changed or
// deleted anything, rather than evicting affected entries one by one.
func (v *VolumeState) InvalidatePathCache() {
	v.pathCache.Clear()
}
