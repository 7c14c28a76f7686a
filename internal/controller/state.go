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

// JobState is the per-index-job-id state machine:
// Idle -> Building -> Live (or back to Idle for a one-shot
// job). Paused is tracked separately since tracking can be toggled on
// and off within Live without tearing the job down.
type JobState int

const (
	JobIdle JobState = iota
	JobBuilding
	JobLive
)

func (s JobState) String() string {
	switch s {
	case JobBuilding:
		return "building"
	case JobLive:
		return "live"
	default:
		return "idle"
	}
}
