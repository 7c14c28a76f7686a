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

// Package events defines the discriminated unions carried on the
// bounded channels between the Index Job, the Search Worker, and the
// Controller. Components never invoke each other through synchronous
// callbacks; everything goes through a queue so the controller can
// rate-limit and filter. Every sum type here is a Kind-tagged struct,
// not a string.
package events

import "github.com/wizmini/wizcore/internal/corpus"

// Backend identifies which enumeration path produced a Done event.
type Backend int

const (
	BackendDetecting Backend = iota // no path has completed yet
	BackendNtfsMft
	BackendDirwalk
	BackendMixed
)

func (b Backend) String() string {
	switch b {
	case BackendNtfsMft:
		return "ntfs-mft"
	case BackendDirwalk:
		return "dirwalk"
	case BackendMixed:
		return "mixed"
	default:
		return "detecting"
	}
}

// IndexEventKind discriminates IndexEvent.
type IndexEventKind int

const (
	IndexSnapshotLoaded IndexEventKind = iota
	IndexProgress
	IndexDone
	IndexDelta
)

// IndexEvent is one message on an Index Job's output channel. JobID
// lets the controller discard events from a superseded job without
// inspecting payload contents.
type IndexEvent struct {
	Kind  IndexEventKind
	JobID uint64

	// SnapshotLoaded, Done
	Items   []corpus.SearchItem
	Backend Backend
	// Live is set on a Done event when the job continues tailing the
	// USN journal afterward, so the controller's state machine knows
	// whether to settle in Live or back in Idle.
	Live bool
	// NotElevated is set on a Done event when at least one drive-rooted
	// root fell back to dirwalk because opening its volume failed with
	// access denied; a fallback for any other NTFS failure leaves it
	// false. It drives the "not elevated" indicator the UI surfaces.
	NotElevated bool

	// Progress
	Phase   string
	Current int64
	Total   int64

	// Delta
	Upserts        []corpus.SearchItem
	DeletedPaths   []string
	ChangedEntries int
}

// SearchEventKind discriminates SearchEvent.
type SearchEventKind int

const (
	SearchProgress SearchEventKind = iota
	SearchDone
)

// SearchEvent is one message on the Search Worker's output channel.
// Generation lets the controller discard results from a cancelled or
// superseded Run.
type SearchEvent struct {
	Kind       SearchEventKind
	Generation uint64

	// Progress
	Scanned int
	Total   int

	// Done
	Items []corpus.SearchItem
}
