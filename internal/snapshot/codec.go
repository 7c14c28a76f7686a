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

package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// errVersionMismatch is returned by the decoders when a file's version
// tag is not CurrentVersion; callers treat it the same as any other
// decode error, i.e. as if no snapshot existed.
var errVersionMismatch = fmt.Errorf("snapshot: unsupported version")

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeBool(w *bufio.Writer, b bool) error {
	var v byte
	if b {
		v = 1
	}
	return w.WriteByte(v)
}

func readBool(r *bufio.Reader) (bool, error) {
	v, err := r.ReadByte()
	return v != 0, err
}

// EncodeScopeSnapshot writes snap's length-prefixed binary form,
// version tag first.
func EncodeScopeSnapshot(w io.Writer, snap ScopeIndexSnapshot) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, snap.Version); err != nil {
		return err
	}
	if err := writeString(bw, snap.ScopeLabel); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(snap.Items))); err != nil {
		return err
	}
	for _, it := range snap.Items {
		if err := writeString(bw, it.Path); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, it.ModifiedUnixSecs); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeScopeSnapshot reverses EncodeScopeSnapshot. Any I/O or
// truncation error, or a version tag other than CurrentVersion, is
// returned as an error so the caller can treat it as "no snapshot".
func DecodeScopeSnapshot(r io.Reader) (ScopeIndexSnapshot, error) {
	var snap ScopeIndexSnapshot
	br := bufio.NewReader(r)

	if err := binary.Read(br, binary.LittleEndian, &snap.Version); err != nil {
		return ScopeIndexSnapshot{}, err
	}
	if snap.Version != CurrentVersion {
		return ScopeIndexSnapshot{}, errVersionMismatch
	}
	label, err := readString(br)
	if err != nil {
		return ScopeIndexSnapshot{}, err
	}
	snap.ScopeLabel = label

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return ScopeIndexSnapshot{}, err
	}
	snap.Items = make([]SnapshotItem, 0, count)
	for i := uint32(0); i < count; i++ {
		path, err := readString(br)
		if err != nil {
			return ScopeIndexSnapshot{}, err
		}
		var mtime int64
		if err := binary.Read(br, binary.LittleEndian, &mtime); err != nil {
			return ScopeIndexSnapshot{}, err
		}
		snap.Items = append(snap.Items, SnapshotItem{Path: path, ModifiedUnixSecs: mtime})
	}
	return snap, nil
}

// EncodeNtfsSnapshot writes snap's length-prefixed binary form.
func EncodeNtfsSnapshot(w io.Writer, snap NtfsSnapshot) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, snap.Version); err != nil {
		return err
	}
	if err := bw.WriteByte(snap.DriveLetter); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, snap.JournalID); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, snap.NextUSN); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(snap.Nodes))); err != nil {
		return err
	}
	for _, n := range snap.Nodes {
		if err := binary.Write(bw, binary.LittleEndian, n.ID); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, n.ParentID); err != nil {
			return err
		}
		if err := writeString(bw, n.Name); err != nil {
			return err
		}
		if err := writeBool(bw, n.IsDir); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, n.ModifiedUnixSecs); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, n.FileAttributes); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeNtfsSnapshot reverses EncodeNtfsSnapshot.
func DecodeNtfsSnapshot(r io.Reader) (NtfsSnapshot, error) {
	var snap NtfsSnapshot
	br := bufio.NewReader(r)

	if err := binary.Read(br, binary.LittleEndian, &snap.Version); err != nil {
		return NtfsSnapshot{}, err
	}
	if snap.Version != CurrentVersion {
		return NtfsSnapshot{}, errVersionMismatch
	}
	driveLetter, err := br.ReadByte()
	if err != nil {
		return NtfsSnapshot{}, err
	}
	snap.DriveLetter = driveLetter

	if err := binary.Read(br, binary.LittleEndian, &snap.JournalID); err != nil {
		return NtfsSnapshot{}, err
	}
	if err := binary.Read(br, binary.LittleEndian, &snap.NextUSN); err != nil {
		return NtfsSnapshot{}, err
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return NtfsSnapshot{}, err
	}
	snap.Nodes = make([]NtfsSnapshotNode, 0, count)
	for i := uint32(0); i < count; i++ {
		var node NtfsSnapshotNode
		if err := binary.Read(br, binary.LittleEndian, &node.ID); err != nil {
			return NtfsSnapshot{}, err
		}
		if err := binary.Read(br, binary.LittleEndian, &node.ParentID); err != nil {
			return NtfsSnapshot{}, err
		}
		name, err := readString(br)
		if err != nil {
			return NtfsSnapshot{}, err
		}
		node.Name = name
		isDir, err := readBool(br)
		if err != nil {
			return NtfsSnapshot{}, err
		}
		node.IsDir = isDir
		if err := binary.Read(br, binary.LittleEndian, &node.ModifiedUnixSecs); err != nil {
			return NtfsSnapshot{}, err
		}
		if err := binary.Read(br, binary.LittleEndian, &node.FileAttributes); err != nil {
			return NtfsSnapshot{}, err
		}
		snap.Nodes = append(snap.Nodes, node)
	}
	return snap, nil
}
