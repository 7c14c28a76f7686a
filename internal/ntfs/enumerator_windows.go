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

// ResumeFromSnapshot rebuilds a VolumeState from a persisted node map
// instead of re-enumerating the MFT, provided the volume's journal
// still honors the saved id and cursor. The cursor must be the one the
// snapshot itself was written with — the node map only reflects the
// journal up to that point. Returns ErrJournalInvalidated when the id
// or cursor no longer holds, so the caller falls back to Enumerate.
//
// On success the opened handle is kept in the returned state for the
// poller to reuse; it is closed here only on the error paths.
func ResumeFromSnapshot(driveLetter byte, journalID uint64, nextUSN int64, nodes map[uint64]Node) (*VolumeState, error) {
	h, err := openVolumeHandle(driveLetter)
	if err != nil {
		return nil, classifyVolumeErr(err)
	}

	journal, err := queryUSNJournal(h)
	if err != nil {
		windows.CloseHandle(h)
		return nil, classifyVolumeErr(err)
	}
	if journal.UsnJournalID != journalID {
		windows.CloseHandle(h)
		return nil, ErrJournalInvalidated
	}
	if nextUSN < journal.FirstUsn || nextUSN > journal.NextUsn {
		windows.CloseHandle(h)
		return nil, ErrJournalInvalidated
	}

	v := NewVolumeState(driveLetter)
	v.JournalID = journalID
	v.NextUSN = nextUSN
	v.Nodes = nodes
	v.handle = h
	return v, nil
}

// Enumerate performs a one-shot full scan of driveLetter's MFT: open
// the volume, query the journal for its id and usn range, then
// repeatedly call FSCTL_ENUM_USN_DATA feeding back the returned
// start-file-reference-number until end-of-data.
//
// A handle-open failure returns ErrVolumeUnavailable, or
// ErrAccessDenied if the underlying Windows error was specifically
// ERROR_ACCESS_DENIED. Any IOCTL failure other than end-of-data
// invalidates the whole enumeration — no partial node map is returned.
//
// On success the opened handle is kept in the returned state for the
// poller to reuse; it is closed here only on the error paths.
//
// onProgress, when non-nil, is called after each chunk with
// current = usn - first_usn and total = next_usn - first_usn.
func Enumerate(driveLetter byte, onProgress func(current, total int64)) (*VolumeState, error) {
	h, err := openVolumeHandle(driveLetter)
	if err != nil {
		return nil, classifyVolumeErr(err)
	}

	journal, err := queryUSNJournal(h)
	if err != nil {
		windows.CloseHandle(h)
		return nil, classifyVolumeErr(err)
	}

	v := NewVolumeState(driveLetter)
	v.JournalID = journal.UsnJournalID
	v.NextUSN = journal.NextUsn

	total := journal.NextUsn - journal.FirstUsn

	var startRef uint64
	for {
		records, next, ok, err := enumUSNDataChunk(h, startRef)
		if err != nil {
			windows.CloseHandle(h)
			return nil, err
		}
		if !ok {
			break
		}
		for _, rec := range records {
			if rec.MajorVersion != usnRecordV2 || rec.Name == "" {
				continue
			}
			v.Nodes[rec.FileReferenceNumber] = Node{
				ParentID:         rec.ParentFileReferenceNumber,
				Name:             rec.Name,
				IsDir:            rec.IsDirectory,
				ModifiedUnixSecs: filetimeToUnixSecs(rec.TimeStampFiletime),
				FileAttributes:   rec.FileAttributes,
			}
		}
		if onProgress != nil && len(records) > 0 {
			current := records[len(records)-1].Usn - journal.FirstUsn
			if current < 0 {
				current = 0
			}
			onProgress(current, total)
		}
		if next == startRef {
			break // kernel stopped advancing; avoid spinning forever
		}
		startRef = next
	}

	v.handle = h
	return v, nil
}
