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

package corpus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizmini/wizcore/internal/corpus"
)

func drainRebuild(c *corpus.Corpus) {
	for !c.Rebuild() {
	}
}

func TestApplyDelta_LiteralScenario(t *testing.T) {
	c := corpus.New(1000)
	c.Replace([]corpus.SearchItem{{Path: "X", ModifiedUnixSecs: 10}})

	counts := c.ApplyDelta(
		[]corpus.SearchItem{{Path: "X", ModifiedUnixSecs: 20}, {Path: "Y", ModifiedUnixSecs: 15}},
		[]string{"Z"},
	)

	require.Equal(t, corpus.DeltaCounts{Added: 1, Updated: 1, Deleted: 0}, counts)

	byPath := map[string]int64{}
	for _, it := range c.Items() {
		byPath[it.Path] = it.ModifiedUnixSecs
	}
	assert.Equal(t, map[string]int64{"X": 20, "Y": 15}, byPath)
}

func TestApplyDelta_DeletedPathsAbsentAndUpsertsExactlyOnce(t *testing.T) {
	c := corpus.New(1000)
	c.Replace([]corpus.SearchItem{
		{Path: "A", ModifiedUnixSecs: 1},
		{Path: "B", ModifiedUnixSecs: 2},
	})

	counts := c.ApplyDelta(
		[]corpus.SearchItem{{Path: "A", ModifiedUnixSecs: 9}, {Path: "C", ModifiedUnixSecs: 3}},
		[]string{"B"},
	)

	assert.Equal(t, 1, counts.Deleted)
	assert.Equal(t, 1, counts.Updated)
	assert.Equal(t, 1, counts.Added)

	var sawB bool
	seen := map[string]int{}
	for _, it := range c.Items() {
		seen[it.Path]++
		if it.Path == "B" {
			sawB = true
		}
	}
	assert.False(t, sawB)
	assert.Equal(t, 1, seen["A"])
	assert.Equal(t, 1, seen["C"])
}

func TestApplyDelta_DeletingAbsentPathCountsZero(t *testing.T) {
	c := corpus.New(1000)
	c.Replace([]corpus.SearchItem{{Path: "A", ModifiedUnixSecs: 1}})

	counts := c.ApplyDelta(nil, []string{"not-present"})

	assert.Equal(t, 0, counts.Deleted)
}

func TestFilenameIndex_DirtyUntilRebuildThenConsistent(t *testing.T) {
	c := corpus.New(2)
	c.Replace([]corpus.SearchItem{
		{Path: `C:\a\Notes.txt`, ModifiedUnixSecs: 1},
		{Path: `C:\b\note.md`, ModifiedUnixSecs: 2},
		{Path: `C:\c\other.bin`, ModifiedUnixSecs: 3},
	})
	assert.True(t, c.Dirty())

	_, ok := c.LookupExact("notes.txt")
	assert.False(t, ok, "fast path must be refused while dirty")

	drainRebuild(c)
	assert.False(t, c.Dirty())
	c.CheckInvariants()

	items, ok := c.LookupExact("notes.txt")
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, `C:\a\Notes.txt`, items[0].Path)
}

func TestLookupPrefixSubstring_CaseInsensitiveOnFilenameOnly(t *testing.T) {
	c := corpus.New(1000)
	c.Replace([]corpus.SearchItem{
		{Path: `C:\a\Notes.txt`, ModifiedUnixSecs: 1},
		{Path: `C:\b\note.md`, ModifiedUnixSecs: 2},
		{Path: `C:\c\other.bin`, ModifiedUnixSecs: 3},
	})
	drainRebuild(c)

	items, ok := c.LookupPrefixSubstring("note")
	require.True(t, ok)
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	assert.ElementsMatch(t, []string{`C:\a\Notes.txt`, `C:\b\note.md`}, paths)
}

func TestLookup_RefusesFastPathBreakerCharacters(t *testing.T) {
	c := corpus.New(1000)
	c.Replace([]corpus.SearchItem{{Path: `C:\a\b.txt`, ModifiedUnixSecs: 1}})
	drainRebuild(c)

	_, ok := c.LookupExact(`c:\a\b.txt`)
	assert.False(t, ok)
	_, ok = c.LookupPrefixSubstring("a*.txt")
	assert.False(t, ok)
}

func TestApplyDelta_MarksIndexDirty(t *testing.T) {
	c := corpus.New(1000)
	c.Replace([]corpus.SearchItem{{Path: "A", ModifiedUnixSecs: 1}})
	drainRebuild(c)
	assert.False(t, c.Dirty())

	c.ApplyDelta([]corpus.SearchItem{{Path: "B", ModifiedUnixSecs: 2}}, nil)

	assert.True(t, c.Dirty())
}
