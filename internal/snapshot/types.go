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

// Package snapshot persists the engine's three on-disk artifacts:
// the per-scope corpus snapshot, the per-volume NTFS raw snapshot, and the USN checkpoint file, all rooted under
// config.StateDir(). Writes are handed off to a single background
// goroutine (internal/logger's AsyncLogger channel-handoff pattern) so
// the index job thread never blocks on disk I/O.
package snapshot

// CurrentVersion is the only version tag readers accept; anything
// else is rejected at decode time.
const CurrentVersion uint32 = 1

// SnapshotItem is one entry of a ScopeIndexSnapshot.
type SnapshotItem struct {
	Path             string
	ModifiedUnixSecs int64
}

// ScopeIndexSnapshot is the full corpus for one SearchScope, persisted
// to snapshots/scope-<label>.bin.
type ScopeIndexSnapshot struct {
	Version    uint32
	ScopeLabel string
	Items      []SnapshotItem
}

// NtfsSnapshotNode is one node of an NtfsSnapshot.
type NtfsSnapshotNode struct {
	ID               uint64
	ParentID         uint64
	Name             string
	IsDir            bool
	ModifiedUnixSecs int64
	FileAttributes   uint32
}

// NtfsSnapshot is one volume's node map plus journal cursor, persisted
// to snapshots/<DRIVE>.bin.
type NtfsSnapshot struct {
	Version     uint32
	DriveLetter byte
	JournalID   uint64
	NextUSN     int64
	Nodes       []NtfsSnapshotNode
}

// Checkpoint is one drive's safe USN cursor, persisted as one line of
// usn_checkpoints.txt.
type Checkpoint struct {
	Drive     byte
	JournalID uint64
	NextUSN   int64
}
