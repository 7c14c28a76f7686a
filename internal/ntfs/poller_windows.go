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

//go:build windows

package ntfs

import "golang.org/x/sys/windows"

// Poll reads one batch from v's journal starting at v.NextUSN
// (zero-wait), reusing the volume handle v has held since Enumerate or
// ResumeFromSnapshot opened it. HANDLE_EOF yields an empty batch, not
// an error. The cursor advances to whatever value the kernel wrote at
// the buffer head; HANDLE_EOF mid-batch and at a batch boundary are
// treated the same.
func Poll(v *VolumeState) (JournalBatch, error) {
	if v.handle == 0 {
		return JournalBatch{}, ErrVolumeUnavailable
	}

	decoded, next, err := readUSNJournalChunk(v.handle, v.JournalID, v.NextUSN)
	if err != nil {
		return JournalBatch{}, err
	}
	v.NextUSN = next

	records := make([]ChangeRecord, 0, len(decoded))
	for _, rec := range decoded {
		records = append(records, ChangeRecord{
			RecordID:         rec.FileReferenceNumber,
			ParentID:         rec.ParentFileReferenceNumber,
			Name:             rec.Name,
			IsDir:            rec.IsDirectory,
			ModifiedUnixSecs: filetimeToUnixSecs(rec.TimeStampFiletime),
			FileAttributes:   rec.FileAttributes,
			IsDelete:         rec.Reason&usnReasonFileDelete != 0,
		})
	}

	return v.ApplyRecords(records), nil
}

// ReopenAndRecover closes v's current handle, reopens the volume, and
// decides whether the saved journal id/cursor are still valid: if the
// id matches and the cursor lies within [first_usn, next_usn], the
// fresh handle is installed and v can keep polling; otherwise the
// fresh handle is closed again and the caller must re-enumerate from
// scratch.
func ReopenAndRecover(v *VolumeState) (resumable bool, err error) {
	v.Close()

	h, err := openVolumeHandle(v.DriveLetter)
	if err != nil {
		return false, ErrVolumeUnavailable
	}

	journal, err := queryUSNJournal(h)
	if err != nil {
		windows.CloseHandle(h)
		return false, err
	}
	if journal.UsnJournalID != v.JournalID {
		windows.CloseHandle(h)
		return false, nil
	}
	if v.NextUSN < journal.FirstUsn || v.NextUSN > journal.NextUsn {
		windows.CloseHandle(h)
		return false, nil
	}

	v.handle = h
	return true, nil
}
