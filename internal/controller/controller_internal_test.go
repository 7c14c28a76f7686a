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

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizmini/wizcore/internal/clock"
	"github.com/wizmini/wizcore/internal/config"
	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/events"
	"github.com/wizmini/wizcore/internal/scope"
	"github.com/wizmini/wizcore/internal/snapshot"
)

// These tests poke controller internals directly (applyIndexEvent,
// dispatchSearch) so event ordering is fully deterministic, with no
// real index-job goroutine racing the assertions.

func newBareController(t *testing.T) (*Controller, *clock.SimulatedClock) {
	t.Helper()
	t.Chdir(t.TempDir())
	clk := clock.NewSimulatedClock(time.Unix(1_700_000_000, 0))
	store := snapshot.NewStore(t.TempDir())
	t.Cleanup(store.Close)

	c := New(context.Background(), config.DefaultControllerConfig(), config.DefaultSearchConfig(),
		config.DefaultIndexConfig(), clk, store, t.TempDir(), nil, nil, scope.NewCurrentFolder())
	t.Cleanup(c.Close)
	return c, clk
}

func TestApplyIndexEvent_DiscardsStaleJobID(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.applyIndexEvent(now, events.IndexEvent{
		Kind:  events.IndexDone,
		JobID: c.activeJobID + 41,
		Items: []corpus.SearchItem{{Path: `C:\stale.txt`, ModifiedUnixSecs: 1}},
	})
	assert.Equal(t, 0, c.corpus.Len(), "stale Done must not mutate the corpus")
	assert.Equal(t, JobBuilding, c.jobState)

	c.applyIndexEvent(now, events.IndexEvent{
		Kind:  events.IndexDone,
		JobID: c.activeJobID,
		Items: []corpus.SearchItem{{Path: `C:\a.txt`, ModifiedUnixSecs: 1}},
	})
	require.Equal(t, 1, c.corpus.Len())
	assert.Equal(t, `C:\a.txt`, c.corpus.Items()[0].Path)
	assert.Equal(t, JobIdle, c.jobState)
}

func TestApplyIndexEvent_DeltaOutsideLiveIsIgnored(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.applyIndexEvent(now, events.IndexEvent{
		Kind:    events.IndexDelta,
		JobID:   c.activeJobID,
		Upserts: []corpus.SearchItem{{Path: `C:\early.txt`, ModifiedUnixSecs: 1}},
	})
	assert.Equal(t, 0, c.corpus.Len(), "Delta is only legal in Live")
}

func TestDispatchSearch_FastPathServesFromCleanFilenameIndex(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.corpus.Replace([]corpus.SearchItem{
		{Path: `C:\a\Notes.txt`, ModifiedUnixSecs: 10},
		{Path: `C:\b\note.md`, ModifiedUnixSecs: 20},
		{Path: `C:\c\other.bin`, ModifiedUnixSecs: 30},
	})
	for !c.corpus.Rebuild() {
	}

	c.query = "note"
	before := c.searchGeneration
	c.dispatchSearch(now)

	require.Len(t, c.items, 2, "fast path should have answered synchronously")
	assert.Equal(t, `C:\a\Notes.txt`, c.items[0].Path)
	assert.Equal(t, `C:\b\note.md`, c.items[1].Path)
	assert.Equal(t, before+1, c.searchGeneration, "generation bump still supersedes in-flight worker Runs")
}

func TestDispatchSearch_DirtyIndexFallsBackToWorker(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.corpus.Replace([]corpus.SearchItem{{Path: `C:\a\Notes.txt`, ModifiedUnixSecs: 10}})
	require.True(t, c.corpus.Dirty())

	c.query = "note"
	c.dispatchSearch(now)
	assert.Empty(t, c.items, "dirty index must defer to the worker, not answer inline")
}

func TestNavigation_RoutesToCommandMenuWhileOpen(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.items = []corpus.SearchItem{{Path: `C:\a`}, {Path: `C:\b`}, {Path: `C:\c`}}
	c.SetCommandMenu([]string{"reindex", "scope", "latest"})

	c.ApplyIntent(now, Intent{Kind: IntentMoveDown})
	c.ApplyIntent(now, Intent{Kind: IntentMoveDown})
	assert.Equal(t, 2, c.commandSelected)
	assert.Equal(t, 0, c.selected, "result selection must be untouched while the menu is open")

	c.ApplyIntent(now, Intent{Kind: IntentMoveDown})
	assert.Equal(t, 2, c.commandSelected, "command selection clamps at the list end")

	c.ApplyIntent(now, Intent{Kind: IntentHome})
	assert.Equal(t, 0, c.commandSelected)
	c.ApplyIntent(now, Intent{Kind: IntentEnd})
	assert.Equal(t, 2, c.commandSelected)

	vm := c.ViewModel()
	assert.True(t, vm.CommandMode)
	assert.Equal(t, 2, vm.CommandSelected)
	assert.Equal(t, []string{"reindex", "scope", "latest"}, vm.CommandItems)

	// Escape closes the menu before touching help or the query, and
	// navigation reverts to the result list.
	c.ApplyIntent(now, Intent{Kind: IntentEscape})
	assert.False(t, c.commandMode)
	c.ApplyIntent(now, Intent{Kind: IntentMoveDown})
	assert.Equal(t, 1, c.selected)
}

func TestActivate_InCommandMenuReportsCommandAndCloses(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.items = []corpus.SearchItem{{Path: `C:\a`}}
	c.SetCommandMenu([]string{"reindex", "scope"})
	c.ApplyIntent(now, Intent{Kind: IntentMoveDown})
	c.ApplyIntent(now, Intent{Kind: IntentActivate})

	assert.False(t, c.commandMode)
	assert.Empty(t, c.commandItems)
	assert.Equal(t, "command scope", c.lastAction)
}

func TestSyncCorpusToSearch_PrunesRecentEventsPastMaxWindow(t *testing.T) {
	c, clk := newBareController(t)
	now := clk.Now()

	c.recentEventByPath[`C:\old.txt`] = now.Add(-c.searchCfg.MaxWindow - time.Hour).Unix()
	c.recentEventByPath[`C:\new.txt`] = now.Unix()

	c.syncCorpusToSearch(now)

	assert.NotContains(t, c.recentEventByPath, `C:\old.txt`)
	assert.Contains(t, c.recentEventByPath, `C:\new.txt`)
}
