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

// Package controller implements the single-threaded coordinator: it
// owns the corpus and filename index, consumes
// events from the Index Job and Search Worker, serves ControllerIntent
// values from the UI layer, debounces queries and refreshes, and
// produces a ViewModel every tick. All mutable state has exactly one
// owner; workers feed it through channels.
package controller

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/wizmini/wizcore/internal/clock"
	"github.com/wizmini/wizcore/internal/config"
	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/events"
	"github.com/wizmini/wizcore/internal/indexjob"
	"github.com/wizmini/wizcore/internal/logger"
	"github.com/wizmini/wizcore/internal/metrics"
	"github.com/wizmini/wizcore/internal/scope"
	"github.com/wizmini/wizcore/internal/searchworker"
	"github.com/wizmini/wizcore/internal/snapshot"
)

// Controller owns every piece of mutable engine state. It is never
// touched from more than one goroutine; Tick and ApplyIntent are meant
// to be called from the UI's own event loop.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg       config.ControllerConfig
	searchCfg config.SearchConfig
	indexCfg  config.IndexConfig
	clk       clock.Clock
	store     *snapshot.Store
	stateDir  string
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	corpus            *corpus.Corpus
	recentEventByPath map[string]int64

	search *searchworker.Worker

	jobCounter  uint64
	activeJobID uint64
	jobState    JobState
	paused      bool
	currentJob  *indexjob.Job
	scope       scope.Scope

	indexPhase   string
	indexCurrent int64
	indexTotal   int64
	backend      events.Backend
	notElevated  bool

	items    []corpus.SearchItem
	selected int

	commandMode     bool
	commandItems    []string
	commandSelected int

	query            string
	editCounter      uint64
	pendingQuery     bool
	pendingQueryText string
	pendingQueryDue  time.Time
	pendingRefresh   bool
	refreshDue       time.Time
	searchGeneration uint64
	searchStart      time.Time
	searchScanned    int
	searchTotal      int

	visible        bool
	pendingVisible *bool
	visibleDue     time.Time

	latestOnly   bool
	latestWindow time.Duration

	showHelp           bool
	quickHelpDismissed bool

	lastAction string
	exiting    bool
}

const pageSize = 10

// New constructs a Controller, starts its search worker, records the
// state directory it reads and writes persisted state under, and kicks
// off the initial index job for sc.
func New(
	ctx context.Context,
	cfg config.ControllerConfig,
	searchCfg config.SearchConfig,
	indexCfg config.IndexConfig,
	clk clock.Clock,
	store *snapshot.Store,
	stateDir string,
	m *metrics.Metrics,
	tracer trace.Tracer,
	sc scope.Scope,
) *Controller {
	runCtx, cancel := context.WithCancel(ctx)
	c := &Controller{
		ctx:               runCtx,
		cancel:            cancel,
		cfg:               cfg,
		searchCfg:         searchCfg,
		indexCfg:          indexCfg,
		clk:               clk,
		store:             store,
		stateDir:          stateDir,
		metrics:           m,
		tracer:            tracer,
		corpus:            corpus.New(cfg.FilenameIndexBatch),
		recentEventByPath: make(map[string]int64),
		visible:           true,
	}
	c.quickHelpDismissed = config.LoadQuickHelpDismissed(stateDir)
	c.search = searchworker.New(clk, searchCfg.ResultCap, searchCfg.ScanBatchSize)
	c.search.Start()
	c.beginIndex(clk.Now(), sc)
	return c
}

// Close tears the controller's owned goroutines down: the current
// index job (if any) and the search worker.
func (c *Controller) Close() {
	c.cancel()
	if c.currentJob != nil {
		c.currentJob.Stop()
	}
	c.search.Stop()
}

// Exiting reports whether an IntentExit has been applied.
func (c *Controller) Exiting() bool { return c.exiting }

// beginIndex retires the current job (asynchronously, so retiring a
// slow volume never blocks the controller) and starts a new one at a
// freshly incremented job id, entering Building.
func (c *Controller) beginIndex(now time.Time, sc scope.Scope) {
	if c.currentJob != nil {
		old := c.currentJob
		go old.Stop()
	}
	c.sendSearchCmd(searchworker.Command{Kind: searchworker.CmdCancel})
	c.sendSearchCmd(searchworker.Command{Kind: searchworker.CmdClear})

	c.jobCounter++
	c.activeJobID = c.jobCounter
	c.jobState = JobBuilding
	c.paused = false
	c.scope = sc
	c.indexPhase = ""
	c.indexCurrent, c.indexTotal = 0, 0
	c.currentJob = indexjob.Start(c.ctx, c.activeJobID, sc, c.store, c.indexCfg, c.clk, c.metrics, c.tracer)
}

func (c *Controller) sendSearchCmd(cmd searchworker.Command) {
	select {
	case c.search.Commands() <- cmd:
	default:
		logger.Warnf("controller: search worker command queue full, dropping kind %d", cmd.Kind)
	}
}

// dispatchSearch cancels any in-flight Run and serves the query,
// preferring the filename index's fast path when it is clean and the
// query qualifies, else handing off to the search worker under a new
// generation.
func (c *Controller) dispatchSearch(now time.Time) {
	c.searchGeneration++
	c.searchStart = now
	c.sendSearchCmd(searchworker.Command{Kind: searchworker.CmdCancel})

	// Fast path: prefix-narrowed substring over filenames only. The
	// generation was already bumped, so any straggling worker Done from
	// the superseded Run is discarded.
	if !c.latestOnly && c.query != "" {
		if items, ok := c.corpus.LookupPrefixSubstring(c.query); ok {
			if len(items) > c.searchCfg.ResultCap {
				items = items[:c.searchCfg.ResultCap]
			}
			c.items = items
			c.clampSelected()
			c.searchScanned, c.searchTotal = c.corpus.Len(), c.corpus.Len()
			c.metrics.RecordSearch(c.ctx, 0, len(items))
			return
		}
	}

	c.sendSearchCmd(searchworker.Command{
		Kind:             searchworker.CmdRun,
		Generation:       c.searchGeneration,
		QueryLower:       strings.ToLower(c.query),
		LatestOnly:       c.latestOnly,
		LatestWindowSecs: c.latestWindow,
	})
}

// syncCorpusToSearch hands the worker owned copies of the corpus and
// the recent-event map — nothing mutable is shared across the
// channel. Recent-event entries older than the largest usable
// latest-only window are pruned while copying, so the map cannot grow
// unbounded across a long-lived session.
func (c *Controller) syncCorpusToSearch(now time.Time) {
	floor := now.Unix() - int64(c.searchCfg.MaxWindow.Seconds())
	recent := make(map[string]int64, len(c.recentEventByPath))
	for path, ts := range c.recentEventByPath {
		if ts < floor {
			delete(c.recentEventByPath, path)
			continue
		}
		recent[path] = ts
	}
	c.sendSearchCmd(searchworker.Command{
		Kind:              searchworker.CmdSetCorpus,
		Items:             append([]corpus.SearchItem(nil), c.corpus.Items()...),
		RecentEventByPath: recent,
	})
}

func (c *Controller) clampSelected() {
	c.selected = clampIndex(c.selected, len(c.items))
}

func clampIndex(i, n int) int {
	switch {
	case n == 0:
		return 0
	case i >= n:
		return n - 1
	case i < 0:
		return 0
	}
	return i
}

// Tick advances the controller's debounce timers, drains bounded
// batches of index/search events, and progresses an in-flight filename
// index rebuild, once per UI frame at whichever tick rate is
// currently active.
func (c *Controller) Tick(now time.Time) {
	if c.pendingQuery && !now.Before(c.pendingQueryDue) {
		c.query = c.pendingQueryText
		c.pendingQuery = false
		c.dispatchSearch(now)
	}

	if c.pendingRefresh && !now.Before(c.refreshDue) && c.visible {
		c.pendingRefresh = false
		c.dispatchSearch(now)
	}

	c.drainIndexEvents(now, c.cfg.IndexDrainPerTick)
	c.drainSearchEvents(now, c.cfg.SearchDrainPerTick)

	if c.corpus.Dirty() {
		c.corpus.Rebuild()
	}

	if c.pendingVisible != nil && !now.Before(c.visibleDue) {
		c.visible = *c.pendingVisible
		c.pendingVisible = nil
	}
}

func (c *Controller) drainIndexEvents(now time.Time, max int) {
	if c.currentJob == nil {
		return
	}
	for i := 0; i < max; i++ {
		select {
		case ev, ok := <-c.currentJob.Events():
			if !ok {
				return
			}
			c.applyIndexEvent(now, ev)
		default:
			return
		}
	}
}

func (c *Controller) applyIndexEvent(now time.Time, ev events.IndexEvent) {
	if ev.JobID != c.activeJobID {
		return // stale worker, retired or about to be; job-id gating
	}

	switch ev.Kind {
	case events.IndexSnapshotLoaded:
		if c.jobState != JobBuilding {
			logger.Warnf("controller: SnapshotLoaded outside Building state, ignoring")
			return
		}
		c.corpus.Replace(ev.Items)
		c.syncCorpusToSearch(now)
		c.scheduleImmediateRefresh(now)

	case events.IndexProgress:
		if c.jobState != JobBuilding {
			return
		}
		c.indexPhase = ev.Phase
		c.indexCurrent = ev.Current
		c.indexTotal = ev.Total

	case events.IndexDone:
		if c.jobState != JobBuilding && c.jobState != JobLive {
			return
		}
		c.corpus.Replace(ev.Items)
		c.backend = ev.Backend
		c.notElevated = ev.NotElevated
		if ev.Live {
			c.jobState = JobLive
		} else {
			c.jobState = JobIdle
		}
		c.syncCorpusToSearch(now)
		c.scheduleImmediateRefresh(now)

	case events.IndexDelta:
		if c.jobState != JobLive {
			logger.Warnf("controller: Delta outside Live state, ignoring")
			return
		}
		c.corpus.ApplyDelta(ev.Upserts, ev.DeletedPaths)
		ts := now.Unix()
		for _, it := range ev.Upserts {
			c.recentEventByPath[it.Path] = ts
		}
		for _, p := range ev.DeletedPaths {
			c.recentEventByPath[p] = ts
		}
		c.syncCorpusToSearch(now)
		c.pendingRefresh = true
		c.refreshDue = now.Add(c.cfg.RefreshCooldown)
	}
}

func (c *Controller) scheduleImmediateRefresh(now time.Time) {
	c.pendingRefresh = true
	c.refreshDue = now
}

func (c *Controller) drainSearchEvents(now time.Time, max int) {
	for i := 0; i < max; i++ {
		select {
		case ev, ok := <-c.search.Events():
			if !ok {
				return
			}
			c.applySearchEvent(now, ev)
		default:
			return
		}
	}
}

func (c *Controller) applySearchEvent(now time.Time, ev events.SearchEvent) {
	if ev.Generation != c.searchGeneration {
		return // superseded generation
	}
	switch ev.Kind {
	case events.SearchProgress:
		c.searchScanned = ev.Scanned
		c.searchTotal = ev.Total
	case events.SearchDone:
		c.items = ev.Items
		c.clampSelected()
		c.metrics.RecordSearch(c.ctx, now.Sub(c.searchStart), len(c.items))
	}
}
