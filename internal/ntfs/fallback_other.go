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

//go:build !windows

package ntfs

// volumeHandle mirrors the Windows build's handle type; no volume is
// ever opened on other platforms.
type volumeHandle = uintptr

// Close is a no-op; non-Windows builds never open a volume handle.
func (v *VolumeState) Close() {}

// Enumerate always reports the volume unavailable on non-Windows
// platforms, so callers fall back to internal/dirwalk.
func Enumerate(driveLetter byte, onProgress func(current, total int64)) (*VolumeState, error) {
	return nil, ErrVolumeUnavailable
}

// ResumeFromSnapshot mirrors Enumerate's unavailability.
func ResumeFromSnapshot(driveLetter byte, journalID uint64, nextUSN int64, nodes map[uint64]Node) (*VolumeState, error) {
	return nil, ErrVolumeUnavailable
}

// Poll mirrors Enumerate's unavailability for symmetry; the Index Job
// never calls it once Enumerate has failed.
func Poll(v *VolumeState) (JournalBatch, error) {
	return JournalBatch{}, ErrVolumeUnavailable
}

// ReopenAndRecover mirrors Enumerate's unavailability.
func ReopenAndRecover(v *VolumeState) (resumable bool, err error) {
	return false, ErrVolumeUnavailable
}
