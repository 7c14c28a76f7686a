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

package dirwalk_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/dirwalk"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deeper", "c.txt"), []byte("x"), 0o644))
	return root
}

func TestWalk_FindsAllFilesWithUnknownModTime(t *testing.T) {
	root := buildTree(t)

	result, err := dirwalk.Walk(root, nil, nil)

	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	var names []string
	for _, it := range result.Items {
		names = append(names, filepath.Base(it.Path))
		assert.Equal(t, corpus.UnknownModTime, it.ModifiedUnixSecs)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestWalk_DoesNotFollowSymlinks(t *testing.T) {
	root := buildTree(t)
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "outside.txt"), []byte("x"), 0o644))

	linkPath := filepath.Join(root, "link")
	if err := os.Symlink(target, linkPath); err != nil {
		t.Skipf("symlinks unavailable in this environment: %v", err)
	}

	result, err := dirwalk.Walk(root, nil, nil)

	require.NoError(t, err)
	for _, it := range result.Items {
		assert.NotContains(t, it.Path, "outside.txt")
	}
}

func TestWalk_MissingRootFails(t *testing.T) {
	_, err := dirwalk.Walk(filepath.Join(t.TempDir(), "does-not-exist"), nil, nil)
	assert.Error(t, err)
}

func TestWalk_SkipsUnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("chmod cannot make a directory unreadable on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	root := buildTree(t)
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	result, err := dirwalk.Walk(root, nil, nil)

	require.NoError(t, err, "an unreadable subdirectory must not fail the walk")
	assert.Len(t, result.Items, 3)
}

func TestWalk_ReportsProgress(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 1200; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("f%04d.txt", i)), []byte("x"), 0o644))
	}

	var progressCalls []int
	_, err := dirwalk.Walk(root, nil, func(scanned int) {
		progressCalls = append(progressCalls, scanned)
	})

	require.NoError(t, err)
	assert.NotEmpty(t, progressCalls)
	assert.Equal(t, 1200, progressCalls[len(progressCalls)-1])
}
