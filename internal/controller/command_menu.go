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

// SetCommandMenu enters command-menu mode with the given command
// labels. The slash-command layer is an external collaborator that
// owns parsing and execution; the controller owns the selection state
// so navigation intents keep flowing through one place. While the menu
// is open, MoveUp/MoveDown/Page/Home/End operate on the command list
// and the result selection is left untouched.
func (c *Controller) SetCommandMenu(items []string) {
	c.commandMode = true
	c.commandItems = append([]string(nil), items...)
	c.commandSelected = 0
}

// ClearCommandMenu leaves command-menu mode; navigation reverts to the
// result list.
func (c *Controller) ClearCommandMenu() {
	c.closeCommandMenu()
}

func (c *Controller) closeCommandMenu() {
	c.commandMode = false
	c.commandItems = nil
	c.commandSelected = 0
}

// applyNavigation moves whichever selection is active: the command
// list while the menu is open, the result list otherwise.
func (c *Controller) applyNavigation(kind IntentKind) {
	sel, n := &c.selected, len(c.items)
	if c.commandMode {
		sel, n = &c.commandSelected, len(c.commandItems)
	}

	switch kind {
	case IntentMoveUp:
		*sel--
	case IntentMoveDown:
		*sel++
	case IntentPageUp:
		*sel -= pageSize
	case IntentPageDown:
		*sel += pageSize
	case IntentHome:
		*sel = 0
	case IntentEnd:
		*sel = n - 1
	}
	*sel = clampIndex(*sel, n)
}
