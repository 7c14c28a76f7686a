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

// Package ntfs implements the NTFS Master File Table enumerator, USN
// journal poller, and record-id path materializer.
// The volume I/O itself (enumerator_windows.go, poller_windows.go)
// is Windows-only; on other platforms every entry point reports
// ErrVolumeUnavailable so callers fall back to internal/dirwalk.
package ntfs

import "errors"

// ErrVolumeUnavailable is returned when a volume handle cannot be
// opened or queried for live NTFS access for any reason other than
// the specific access-denied case ErrAccessDenied covers — the volume
// does not exist, the platform has no NTFS support, an IOCTL failed
// for a transient or unexpected reason, and so on.
var ErrVolumeUnavailable = errors.New("ntfs: volume unavailable")

// ErrAccessDenied is returned when opening the volume handle or
// querying its USN journal failed specifically with
// windows.ERROR_ACCESS_DENIED, the one failure that means "not
// elevated" rather than transient or permanent volume loss.
// Callers use this (and only this) to flip the dirwalk-fallback
// "not elevated" indicator.
var ErrAccessDenied = errors.New("ntfs: access denied, not elevated")

// ErrJournalInvalidated is returned when a saved journal id no longer
// matches the volume's, or a saved cursor falls outside the journal's
// current [first_usn, next_usn] range; the caller must re-enumerate
// from scratch.
var ErrJournalInvalidated = errors.New("ntfs: journal invalidated")

// Node is one MFT record, keyed by file-reference-number in a
// VolumeState's Nodes map.
type Node struct {
	ParentID         uint64
	Name             string
	IsDir            bool
	ModifiedUnixSecs int64
	FileAttributes   uint32
}

// VolumeState is the per-volume aggregate the Enumerator produces and
// the Poller mutates in place. PathCache and ReverseMap are owned
// exclusively by the Path Materializer.
//
// handle is the open volume handle, held for the life of the state
// so the live tail doesn't reopen the volume on every poll; it is
// closed only on recovery, on shutdown, and on job retirement, via
// Close. volumeHandle is platform-aliased so this struct builds
// everywhere.
type VolumeState struct {
	DriveLetter byte
	DrivePrefix string // e.g. "D:\\"

	JournalID uint64
	NextUSN   int64

	handle volumeHandle

	Nodes map[uint64]Node

	pathCache  *pathCache
	ReverseMap map[uint64]string // record-id -> last materialized path
}

// NewVolumeState builds an empty VolumeState for the given drive
// letter, ready for an Enumerator to populate Nodes.
func NewVolumeState(driveLetter byte) *VolumeState {
	return &VolumeState{
		DriveLetter: driveLetter,
		DrivePrefix: string(driveLetter) + `:\`,
		Nodes:       make(map[uint64]Node),
		pathCache:   newPathCache(defaultPathCacheCapacity),
		ReverseMap:  make(map[uint64]string),
	}
}

// descendants returns every record-id reachable from root by
// following ParentID edges downward (BFS), used by the USN Poller to
// cascade a delete to a record's children.
func (v *VolumeState) descendants(root uint64) []uint64 {
	children := make(map[uint64][]uint64, len(v.Nodes))
	for id, n := range v.Nodes {
		children[n.ParentID] = append(children[n.ParentID], id)
	}

	visited := map[uint64]bool{root: true}
	var out []uint64
	queue := []uint64{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if visited[child] {
				continue // self-referential root or a cycle from a mid-flight edit
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}
