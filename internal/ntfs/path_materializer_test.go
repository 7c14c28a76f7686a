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

package ntfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizmini/wizcore/internal/ntfs"
)

// buildVolume wires a root (self-referential, id 1) with B (dir, id 2,
// parent 1) containing A (file, id 3, parent 2).
func buildVolume() *ntfs.VolumeState {
	v := ntfs.NewVolumeState('C')
	v.Nodes[1] = ntfs.Node{ParentID: 1, Name: "", IsDir: true}
	v.Nodes[2] = ntfs.Node{ParentID: 1, Name: "B", IsDir: true}
	v.Nodes[3] = ntfs.Node{ParentID: 2, Name: "A.txt", IsDir: false}
	return v
}

func TestMaterializePath_WalksToRootAndJoins(t *testing.T) {
	v := buildVolume()

	path, ok := v.MaterializePath(3)

	require.True(t, ok)
	assert.Equal(t, `C:\B\A.txt`, path)
}

func TestMaterializePath_RootItselfHasNoSegments(t *testing.T) {
	v := buildVolume()

	path, ok := v.MaterializePath(1)

	require.True(t, ok)
	assert.Equal(t, `C:\`, path)
}

func TestMaterializePath_UnknownRecordIDFails(t *testing.T) {
	v := buildVolume()

	_, ok := v.MaterializePath(999)

	assert.False(t, ok)
}

func TestMaterializePath_MemoizesResult(t *testing.T) {
	v := buildVolume()

	first, ok := v.MaterializePath(3)
	require.True(t, ok)

	// Mutate the underlying node after the first call; a cached lookup
	// must still return the original path until invalidated.
	v.Nodes[2] = ntfs.Node{ParentID: 1, Name: "Renamed", IsDir: true}
	second, ok := v.MaterializePath(3)
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestMaterializePath_InvalidateClearsCache(t *testing.T) {
	v := buildVolume()
	_, _ = v.MaterializePath(3)

	v.Nodes[2] = ntfs.Node{ParentID: 1, Name: "Renamed", IsDir: true}
	v.InvalidatePathCache()

	path, ok := v.MaterializePath(3)
	require.True(t, ok)
	assert.Equal(t, `C:\Renamed\A.txt`, path)
}

func TestMaterializePath_CycleBeyondHopBoundFails(t *testing.T) {
	v := ntfs.NewVolumeState('C')
	// Two nodes pointing at each other, never reaching a self-referential root.
	v.Nodes[1] = ntfs.Node{ParentID: 2, Name: "one"}
	v.Nodes[2] = ntfs.Node{ParentID: 1, Name: "two"}

	_, ok := v.MaterializePath(1)

	assert.False(t, ok)
}
