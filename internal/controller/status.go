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

import "fmt"

// avgPathLenEstimate and filenameIndexOverheadPerItem ground the
// memory estimate in a cheap, order-of-magnitude approximation
// rather than exact accounting.
const (
	avgPathLenEstimate          = 48
	filenameIndexOverheadPerItem = 24
)

// memoryEstimate recomputes the corpus's approximate resident size.
// ViewModel calls it on every call; it is one multiplication over the
// current item count.
func (c *Controller) memoryEstimate() int64 {
	n := int64(c.corpus.Len())
	return n * (avgPathLenEstimate + filenameIndexOverheadPerItem)
}

func (c *Controller) statusLine() string {
	if c.lastAction != "" {
		return c.lastAction
	}
	switch c.jobState {
	case JobBuilding:
		if c.indexPhase != "" {
			return fmt.Sprintf("indexing (%s) %d/%d", c.indexPhase, c.indexCurrent, c.indexTotal)
		}
		return "indexing"
	case JobLive:
		if c.paused {
			return "tracking paused"
		}
		return fmt.Sprintf("%d items, live", c.corpus.Len())
	default:
		return fmt.Sprintf("%d items", c.corpus.Len())
	}
}

// ViewModel produces the UI-facing snapshot.
func (c *Controller) ViewModel() ViewModel {
	return ViewModel{
		Items:    c.items,
		Selected: c.selected,

		CommandMode:     c.commandMode,
		CommandItems:    c.commandItems,
		CommandSelected: c.commandSelected,

		StatusLine:     c.statusLine(),
		LastAction:     c.lastAction,
		MemoryEstBytes: c.memoryEstimate(),
		ItemCount:      c.corpus.Len(),

		IndexPhase:   c.indexPhase,
		IndexCurrent: c.indexCurrent,
		IndexTotal:   c.indexTotal,
		Backend:      c.backend,
		NotElevated:  c.notElevated,

		Scope:    c.scope,
		JobState: c.jobState,
		Paused:   c.paused,

		ShowHelp:           c.showHelp,
		QuickHelpDismissed: c.quickHelpDismissed,

		LatestOnly:   c.latestOnly,
		LatestWindow: int64(c.latestWindow.Seconds()),
	}
}
