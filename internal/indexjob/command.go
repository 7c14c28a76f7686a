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

package indexjob

// CommandKind discriminates Command, the job's small input queue —
// just enough to support the tracking toggle without tearing the job
// down and re-enumerating.
type CommandKind int

const (
	CmdPause CommandKind = iota
	CmdResume
)

// Command is one message on a Job's command queue.
type Command struct {
	Kind CommandKind
}
