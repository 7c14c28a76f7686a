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

package snapshot_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizmini/wizcore/internal/snapshot"
)

func TestScopeSnapshot_RoundTrip(t *testing.T) {
	original := snapshot.ScopeIndexSnapshot{
		Version:    snapshot.CurrentVersion,
		ScopeLabel: "c:",
		Items: []snapshot.SnapshotItem{
			{Path: `C:\x`, ModifiedUnixSecs: 42},
			{Path: `C:\y\z.txt`, ModifiedUnixSecs: 7},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, snapshot.EncodeScopeSnapshot(&buf, original))

	got, err := snapshot.DecodeScopeSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestScopeSnapshot_LiteralTruncationScenario(t *testing.T) {
	original := snapshot.ScopeIndexSnapshot{
		Version:    1,
		ScopeLabel: "c:",
		Items:      []snapshot.SnapshotItem{{Path: `C:\x`, ModifiedUnixSecs: 42}},
	}

	var buf bytes.Buffer
	require.NoError(t, snapshot.EncodeScopeSnapshot(&buf, original))

	truncated := buf.Bytes()[:buf.Len()/2]

	_, err := snapshot.DecodeScopeSnapshot(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestScopeSnapshot_RejectsUnknownVersion(t *testing.T) {
	original := snapshot.ScopeIndexSnapshot{Version: 2, ScopeLabel: "c:"}

	var buf bytes.Buffer
	require.NoError(t, snapshot.EncodeScopeSnapshot(&buf, original))

	_, err := snapshot.DecodeScopeSnapshot(&buf)
	assert.Error(t, err)
}

func TestNtfsSnapshot_RoundTrip(t *testing.T) {
	original := snapshot.NtfsSnapshot{
		Version:     snapshot.CurrentVersion,
		DriveLetter: 'D',
		JournalID:   123,
		NextUSN:     456,
		Nodes: []snapshot.NtfsSnapshotNode{
			{ID: 1, ParentID: 1, Name: "", IsDir: true, ModifiedUnixSecs: 0, FileAttributes: 0x10},
			{ID: 2, ParentID: 1, Name: "a.txt", IsDir: false, ModifiedUnixSecs: 99, FileAttributes: 0x20},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, snapshot.EncodeNtfsSnapshot(&buf, original))

	got, err := snapshot.DecodeNtfsSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}
