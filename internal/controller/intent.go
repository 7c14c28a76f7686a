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

	"github.com/wizmini/wizcore/internal/scope"
)

// IntentKind discriminates Intent, the controller's input sum
// type. Everything the UI/command
// layer can ask of the core funnels through one of these cases.
type IntentKind int

const (
	IntentQueryChanged IntentKind = iota
	IntentActivate
	IntentEscape
	IntentMoveUp
	IntentMoveDown
	IntentPageUp
	IntentPageDown
	IntentHome
	IntentEnd
	IntentAltActivate
	IntentToggleHelp
	IntentDismissHelp
	IntentReindex
	IntentChangeScope
	IntentToggleTracking
	IntentSetLatestOnly
	IntentExit
)

// Intent is one message the UI/command layer sends the controller.
// Only the fields relevant to Kind are populated.
type Intent struct {
	Kind IntentKind

	Query  string        // QueryChanged
	Scope  scope.Scope   // ChangeScope
	Window time.Duration // SetLatestOnly; <=0 is rejected, no mode change
}
