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

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// volumeHandle is the open handle a VolumeState holds onto between
// polls.
type volumeHandle = windows.Handle

// Close releases v's volume handle. Called on recovery (before the
// handle is reopened), on shutdown, and on job retirement; a
// VolumeState whose handle was never opened or is already closed is a
// no-op.
func (v *VolumeState) Close() {
	if v.handle != 0 {
		windows.CloseHandle(v.handle)
		v.handle = 0
	}
}

// IOCTL codes and V0 structure layouts for the NTFS change journal:
// query, enumerate MFT, read USN journal. These are not exposed by
// golang.org/x/sys/windows, so they are defined here.
const (
	fsctlQueryUSNJournal = 0x000900F4
	fsctlEnumUSNData     = 0x000900B3
	fsctlReadUSNJournal  = 0x000900BB
)

const (
	usnReasonMaskAll = 0xFFFFFFFF
	usnRecordV2      = 2
)

// ntfsEpochOffsetSecs converts a Windows FILETIME (100ns intervals
// since 1601-01-01) to Unix seconds.
const ntfsEpochOffsetSecs = 11644473600

func filetimeToUnixSecs(ft int64) int64 {
	return ft/10_000_000 - ntfsEpochOffsetSecs
}

// usnJournalDataV0 mirrors USN_JOURNAL_DATA_V0.
type usnJournalDataV0 struct {
	UsnJournalID    uint64
	FirstUsn        int64
	NextUsn         int64
	LowestValidUsn  int64
	MaxUsn          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// classifyVolumeErr distinguishes the "not elevated" case
// (ERROR_ACCESS_DENIED) from every other failure, which it maps to
// ErrVolumeUnavailable. Enumerate and ResumeFromSnapshot apply it to
// their handle-open and journal-query failures; errors from the MFT
// enumeration loop and from Poll's journal read are returned as is.
func classifyVolumeErr(err error) error {
	if err == nil {
		return nil
	}
	if err == windows.ERROR_ACCESS_DENIED {
		return ErrAccessDenied
	}
	return ErrVolumeUnavailable
}

func openVolumeHandle(driveLetter byte) (windows.Handle, error) {
	path := fmt.Sprintf(`\\.\%c:`, driveLetter)
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}

	h, err := windows.CreateFile(p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, 0, 0)
	if err == nil {
		return h, nil
	}

	// Retry with zero access: USN IOCTLs tolerate a handle opened
	// without read/write rights. The error that
	// survives to the caller is from this second attempt, so a
	// volume that is merely unprivileged for read/write but fine at
	// zero access doesn't get misreported as access-denied.
	return windows.CreateFile(p, 0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, 0, 0)
}

func queryUSNJournal(h windows.Handle) (usnJournalDataV0, error) {
	var out usnJournalDataV0
	var bytesReturned uint32
	err := windows.DeviceIoControl(h, fsctlQueryUSNJournal, nil, 0,
		(*byte)(unsafe.Pointer(&out)), uint32(unsafe.Sizeof(out)), &bytesReturned, nil)
	return out, err
}

// mftEnumDataV0 mirrors MFT_ENUM_DATA_V0, the input buffer for
// FSCTL_ENUM_USN_DATA.
type mftEnumDataV0 struct {
	StartFileReferenceNumber uint64
	LowUsn                   int64
	HighUsn                  int64
}

// enumUSNDataChunk issues one FSCTL_ENUM_USN_DATA call starting at
// startRef and returns the decoded records plus the next
// start-file-reference to feed back in, or ok=false at end-of-data.
func enumUSNDataChunk(h windows.Handle, startRef uint64) (records []decodedUSNRecord, nextRef uint64, ok bool, err error) {
	in := mftEnumDataV0{StartFileReferenceNumber: startRef, LowUsn: 0, HighUsn: 0x7FFFFFFFFFFFFFFF}
	buf := make([]byte, 64*1024)
	var bytesReturned uint32

	err = windows.DeviceIoControl(h, fsctlEnumUSNData,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)), &bytesReturned, nil)
	if err != nil {
		if err == windows.ERROR_HANDLE_EOF || err == windows.ERROR_INVALID_FUNCTION {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	if bytesReturned < 8 {
		return nil, 0, false, nil
	}

	nextRef = binary.LittleEndian.Uint64(buf[0:8])
	records = decodeUSNRecords(buf[8:bytesReturned])
	return records, nextRef, true, nil
}

// readUsnJournalDataV0 mirrors READ_USN_JOURNAL_DATA_V0, the input
// buffer for FSCTL_READ_USN_JOURNAL.
type readUsnJournalDataV0 struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

// readUSNJournalChunk issues one FSCTL_READ_USN_JOURNAL call starting
// at startUsn and returns the decoded records plus the cursor the
// kernel wrote at the buffer head.
func readUSNJournalChunk(h windows.Handle, journalID uint64, startUsn int64) (records []decodedUSNRecord, nextUsn int64, err error) {
	in := readUsnJournalDataV0{
		StartUsn:     startUsn,
		ReasonMask:   usnReasonMaskAll,
		UsnJournalID: journalID,
	}
	buf := make([]byte, 64*1024)
	var bytesReturned uint32

	err = windows.DeviceIoControl(h, fsctlReadUSNJournal,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)), &bytesReturned, nil)
	if err != nil {
		if err == windows.ERROR_HANDLE_EOF {
			return nil, startUsn, nil
		}
		return nil, startUsn, err
	}
	if bytesReturned < 8 {
		return nil, startUsn, nil
	}

	nextUsn = int64(binary.LittleEndian.Uint64(buf[0:8]))
	records = decodeUSNRecords(buf[8:bytesReturned])
	return records, nextUsn, nil
}

// decodedUSNRecord is a USN_RECORD_V2 after fixed-header parsing; Name
// is decoded from UTF-16 with lossy replacement.
type decodedUSNRecord struct {
	FileReferenceNumber       uint64
	ParentFileReferenceNumber uint64
	MajorVersion              uint16
	Usn                       int64
	Reason                    uint32
	FileAttributes            uint32
	TimeStampFiletime         int64
	Name                      string
	IsDirectory               bool
}

const (
	usnReasonFileDelete    = 0x00000200
	usnReasonRenameNewName = 0x00002000
	fileAttributeDirectory = 0x00000010
)

// decodeUSNRecords walks a buffer of back-to-back variable-length
// USN_RECORD_V2 entries. Each record's first 4 bytes give its total
// RecordLength so the decoder can skip to the next one regardless of
// name length.
func decodeUSNRecords(buf []byte) []decodedUSNRecord {
	var out []decodedUSNRecord
	off := 0
	for off+4 <= len(buf) {
		recordLength := binary.LittleEndian.Uint32(buf[off:])
		if recordLength == 0 || off+int(recordLength) > len(buf) {
			break
		}
		rec := buf[off: off+int(recordLength)]
		off += int(recordLength)

		if len(rec) < 60 {
			continue
		}
		majorVersion := binary.LittleEndian.Uint16(rec[4:6])
		if majorVersion != usnRecordV2 {
			continue
		}

		fileRef := binary.LittleEndian.Uint64(rec[8:16])
		parentRef := binary.LittleEndian.Uint64(rec[16:24])
		usn := int64(binary.LittleEndian.Uint64(rec[24:32]))
		reason := binary.LittleEndian.Uint32(rec[40:44])
		ft := int64(binary.LittleEndian.Uint64(rec[32:40]))
		fileAttrs := binary.LittleEndian.Uint32(rec[52:56])
		nameLength := binary.LittleEndian.Uint16(rec[56:58])
		nameOffset := binary.LittleEndian.Uint16(rec[58:60])

		var name string
		if int(nameOffset)+int(nameLength) <= len(rec) {
			name = decodeUTF16Lossy(rec[nameOffset: int(nameOffset)+int(nameLength)])
		}
		if name == "" {
			continue
		}

		out = append(out, decodedUSNRecord{
			FileReferenceNumber:       fileRef,
			ParentFileReferenceNumber: parentRef,
			MajorVersion:              majorVersion,
			Usn:                       usn,
			Reason:                    reason,
			FileAttributes:            fileAttrs,
			TimeStampFiletime:         ft,
			Name:                      name,
			IsDirectory:               fileAttrs&fileAttributeDirectory != 0,
		})
	}
	return out
}

func decodeUTF16Lossy(b []byte) string {
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return windows.UTF16ToString(u16)
}
