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

package searchworker

import (
	"time"

	"github.com/wizmini/wizcore/internal/corpus"
)

// CommandKind discriminates Command.
type CommandKind int

const (
	CmdSetCorpus CommandKind = iota
	CmdRun
	CmdCancel
	CmdClear
)

// Command is one message on the worker's input queue.
type Command struct {
	Kind CommandKind

	// SetCorpus
	Items             []corpus.SearchItem
	RecentEventByPath map[string]int64

	// Run
	Generation       uint64
	QueryLower       string
	LatestOnly       bool
	LatestWindowSecs time.Duration
}
