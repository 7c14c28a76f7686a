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

	"github.com/wizmini/wizcore/internal/searchworker"
)

// NotifyVisibility records an observed hotkey/tray visibility event,
// subject to the visibility debounce. The
// window/tray layer is an external collaborator; this is
// the contract it calls into.
func (c *Controller) NotifyVisibility(now time.Time, visible bool) {
	if visible == c.visible && c.pendingVisible == nil {
		return
	}
	v := visible
	c.pendingVisible = &v
	c.visibleDue = now.Add(c.cfg.VisibilityDebounce)

	if !visible {
		c.sendSearchCmd(searchworker.Command{Kind: searchworker.CmdCancel})
	}
}
