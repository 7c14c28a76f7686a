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

package controller

import (
	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/events"
	"github.com/wizmini/wizcore/internal/scope"
)

// ViewModel is the read-only snapshot the UI layer renders from every
// tick. It is produced fresh each call
// rather than mutated in place, so the renderer never observes a
// partially updated frame.
type ViewModel struct {
	Items    []corpus.SearchItem
	Selected int

	CommandMode     bool
	CommandItems    []string
	CommandSelected int

	StatusLine     string
	LastAction     string
	MemoryEstBytes int64
	ItemCount      int

	IndexPhase   string
	IndexCurrent int64
	IndexTotal   int64
	Backend      events.Backend
	NotElevated  bool

	Scope    scope.Scope
	JobState JobState
	Paused   bool

	ShowHelp           bool
	QuickHelpDismissed bool

	LatestOnly   bool
	LatestWindow int64 // seconds
}
