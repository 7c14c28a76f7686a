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
	"time"

	"github.com/wizmini/wizcore/internal/config"
	"github.com/wizmini/wizcore/internal/indexjob"
)

// ApplyIntent handles one ControllerIntent. Most cases
// mutate state synchronously and return immediately; QueryChanged only
// schedules a debounced apply.
func (c *Controller) ApplyIntent(now time.Time, intent Intent) {
	switch intent.Kind {
	case IntentQueryChanged:
		c.editCounter++
		c.pendingQuery = true
		c.pendingQueryText = intent.Query
		c.pendingQueryDue = now.Add(c.cfg.QueryDebounce)

	case IntentActivate, IntentAltActivate:
		if c.commandMode {
			if c.commandSelected >= 0 && c.commandSelected < len(c.commandItems) {
				c.lastAction = "command " + c.commandItems[c.commandSelected]
			}
			c.closeCommandMenu()
		} else if c.selected >= 0 && c.selected < len(c.items) {
			c.lastAction = "activate " + c.items[c.selected].Path
		}

	case IntentEscape:
		switch {
		case c.commandMode:
			c.closeCommandMenu()
		case c.showHelp:
			c.showHelp = false
		case c.query != "" || c.pendingQuery:
			c.pendingQuery = true
			c.pendingQueryText = ""
			c.pendingQueryDue = now
		}

	case IntentMoveUp, IntentMoveDown, IntentPageUp, IntentPageDown, IntentHome, IntentEnd:
		c.applyNavigation(intent.Kind)

	case IntentToggleHelp:
		c.showHelp = !c.showHelp

	case IntentDismissHelp:
		c.showHelp = false
		c.quickHelpDismissed = true
		_ = config.SaveQuickHelpDismissed(c.stateDir, true)

	case IntentReindex:
		c.beginIndex(now, c.scope)

	case IntentChangeScope:
		if intent.Scope.Equal(c.scope) {
			return
		}
		_ = config.SaveScopeLabel(c.stateDir, intent.Scope.Label())
		c.beginIndex(now, intent.Scope)

	case IntentToggleTracking:
		c.paused = !c.paused
		if c.currentJob == nil {
			return
		}
		kind := indexjob.CmdResume
		if c.paused {
			kind = indexjob.CmdPause
		}
		select {
		case c.currentJob.Commands() <- indexjob.Command{Kind: kind}:
		default:
		}

	case IntentSetLatestOnly:
		if intent.Window <= 0 {
			c.lastAction = "latest window must be positive"
			return
		}
		if c.latestOnly && c.latestWindow == intent.Window {
			c.latestOnly = false
		} else {
			c.latestOnly = true
			c.latestWindow = intent.Window
		}
		c.dispatchSearch(now)

	case IntentExit:
		c.exiting = true
	}
}
