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

// Package indexjob implements the Index Job: a
// scope-parameterized task combining the NTFS Enumerator, USN Poller,
// Path Materializer, Snapshot Store, and Dirwalk Enumerator fallback
// into one event stream of {SnapshotLoaded, Progress, Done, Delta}.
// Fan-out across multiple volumes for AllLocalDrives is supervised
// with golang.org/x/sync/errgroup.
package indexjob

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wizmini/wizcore/internal/clock"
	"github.com/wizmini/wizcore/internal/config"
	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/dirwalk"
	"github.com/wizmini/wizcore/internal/events"
	"github.com/wizmini/wizcore/internal/logger"
	"github.com/wizmini/wizcore/internal/metrics"
	"github.com/wizmini/wizcore/internal/ntfs"
	"github.com/wizmini/wizcore/internal/scope"
	"github.com/wizmini/wizcore/internal/snapshot"
	"github.com/wizmini/wizcore/internal/workerpool"
)

// Job runs one scope's index/live-tail lifecycle on its own goroutine
// and streams events back to the Controller. Events carry the job's ID
// so a controller that has moved on to a newer job can discard them
// cheaply.
type Job struct {
	ID uint64

	eventCh chan events.IndexEvent
	cmdCh   chan Command
	done    chan struct{}
	cancel  context.CancelFunc

	paused atomic.Bool
}

// Events returns the channel the controller drains IndexEvents from.
func (j *Job) Events() <-chan events.IndexEvent { return j.eventCh }

// Commands returns the channel callers send Pause/Resume on.
func (j *Job) Commands() chan<- Command { return j.cmdCh }

// Stop cancels the job and waits for its goroutines to exit. On its way
// out a live job queues a final NTFS snapshot per volume on the store
// and rewrites the checkpoint file; Stop does not wait for the queued
// snapshot writes to reach disk (Store.Close does).
func (j *Job) Stop() {
	j.cancel()
	<-j.done
}

// Start launches a Job for scope sc with job id, and returns
// immediately; the job's goroutine runs until Stop is called, or ends
// by itself after its Done event when no volume is left to tail live
// (a dirwalk-only scope, or a scope with no viable roots at all).
func Start(ctx context.Context, id uint64, sc scope.Scope, store *snapshot.Store, cfg config.IndexConfig, clk clock.Clock, m *metrics.Metrics, tracer trace.Tracer) *Job {
	runCtx, cancel := context.WithCancel(ctx)
	j := &Job{
		ID:      id,
		eventCh: make(chan events.IndexEvent, 64),
		cmdCh:   make(chan Command, 4),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go j.run(runCtx, sc, store, cfg, clk, m, tracer)
	go j.watchCommands(runCtx)
	return j
}

func (j *Job) watchCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-j.cmdCh:
			if !ok {
				return
			}
			switch cmd.Kind {
			case CmdPause:
				j.paused.Store(true)
			case CmdResume:
				j.paused.Store(false)
			}
		}
	}
}

// emit blocks until eventCh accepts e, so a slow controller
// backpressures the job rather than silently dropping a Done or Delta
// — but gives up once ctx is cancelled, so Stop() never
// deadlocks waiting on a goroutine stuck sending to a channel nobody
// drains anymore.
func (j *Job) emit(ctx context.Context, e events.IndexEvent) {
	e.JobID = j.ID
	select {
	case j.eventCh <- e:
	case <-ctx.Done():
	}
}

// emitProgress is best-effort: a Progress the controller has no room
// for is dropped rather than stalling enumeration, since a fresher one
// follows shortly and only SnapshotLoaded/Done/Delta carry state.
func (j *Job) emitProgress(phase string, current, total int64) {
	select {
	case j.eventCh <- events.IndexEvent{Kind: events.IndexProgress, JobID: j.ID, Phase: phase, Current: current, Total: total}:
	default:
	}
}

func (j *Job) run(ctx context.Context, sc scope.Scope, store *snapshot.Store, cfg config.IndexConfig, clk clock.Clock, m *metrics.Metrics, tracer trace.Tracer) {
	defer close(j.done)
	defer close(j.eventCh)

	start := clk.Now()
	var span trace.Span
	if tracer != nil {
		ctx, span = tracer.Start(ctx, "indexjob.run")
		defer span.End()
	}

	j.emit(ctx, events.IndexEvent{Kind: events.IndexProgress, Phase: "snapshot"})
	if snap, ok := store.LoadScopeSnapshot(sc.Label()); ok {
		j.emit(ctx, events.IndexEvent{Kind: events.IndexSnapshotLoaded, Items: snapshotItemsToCorpus(snap.Items)})
	}

	roots, err := resolveRoots(sc)
	if err != nil {
		logger.Warnf("indexjob: resolving roots for scope %q: %v", sc.Label(), err)
		j.emit(ctx, events.IndexEvent{Kind: events.IndexDone, Backend: events.BackendDetecting})
		return
	}
	if len(roots) == 0 {
		j.emit(ctx, events.IndexEvent{Kind: events.IndexDone, Backend: events.BackendDetecting})
		return
	}

	j.emit(ctx, events.IndexEvent{Kind: events.IndexProgress, Phase: "index"})

	pool, _ := workerpool.NewStaticWorkerPool(2, 2)
	defer pool.Stop()

	results := make([]rootResult, len(roots))

	var wg sync.WaitGroup
	for i, r := range roots {
		wg.Add(1)
		go func(i int, r rootSpec) {
			defer wg.Done()
			results[i] = enumerateOneRoot(r, pool, store, j.emitProgress)
		}(i, r)
	}
	wg.Wait()

	var allItems []corpus.SearchItem
	var live []*liveVolume
	sawNtfs, sawDirwalk, notElevated := false, false, false
	for _, res := range results {
		allItems = append(allItems, res.items...)
		switch res.backend {
		case events.BackendNtfsMft:
			sawNtfs = true
		case events.BackendDirwalk:
			sawDirwalk = true
		}
		if res.accessDenied {
			notElevated = true
		}
		if res.live != nil {
			live = append(live, res.live)
		}
	}

	backend := overallBackend(sawNtfs, sawDirwalk)
	j.emit(ctx, events.IndexEvent{Kind: events.IndexDone, Items: allItems, Backend: backend, Live: len(live) > 0, NotElevated: notElevated})
	store.SaveScopeSnapshotAsync(snapshot.ScopeIndexSnapshot{
		Version:    snapshot.CurrentVersion,
		ScopeLabel: sc.Label(),
		Items:      corpusItemsToSnapshot(allItems),
	})
	m.RecordFilesIndexed(ctx, len(allItems), backend.String())
	m.RecordIndexJobDuration(ctx, clk.Now().Sub(start), backend.String())

	if len(live) == 0 {
		return // one-shot job: dirwalk-only scope has nothing further to do
	}

	j.runLive(ctx, live, store, cfg, clk, m)
}

func overallBackend(sawNtfs, sawDirwalk bool) events.Backend {
	switch {
	case sawNtfs && sawDirwalk:
		return events.BackendMixed
	case sawNtfs:
		return events.BackendNtfsMft
	case sawDirwalk:
		return events.BackendDirwalk
	default:
		return events.BackendDetecting
	}
}

// liveVolume is one volume whose NTFS enumeration succeeded, tracked
// for the live poll loop.
type liveVolume struct {
	state             *ntfs.VolumeState
	unackedChanges    int
	lastSnapshotWrite time.Time
}

// rootResult is one root's enumeration outcome, fanned in by run().
type rootResult struct {
	items        []corpus.SearchItem
	backend      events.Backend
	live         *liveVolume
	accessDenied bool // drive-rooted, live NTFS open/query failed specifically with ntfs.ErrAccessDenied
}

// enumerateOneRoot attempts live NTFS for r, falling back to a dirwalk
// over r.dirwalkPath on any failure, so one dead volume degrades that
// volume alone rather than the whole job. Only an
// ntfs.ErrAccessDenied failure — not a generic ErrVolumeUnavailable —
// flips the "not elevated" indicator.
func enumerateOneRoot(r rootSpec, pool *workerpool.Pool, store *snapshot.Store, progress func(phase string, current, total int64)) rootResult {
	accessDenied := false
	if r.driveLetter != 0 {
		v, err := resumeOrEnumerate(r.driveLetter, store, progress)
		if err == nil {
			items := v.Items()
			if r.folderFilter != "" {
				items = filterByFolder(items, r.folderFilter)
			}
			return rootResult{items: items, backend: events.BackendNtfsMft, live: &liveVolume{state: v, lastSnapshotWrite: time.Unix(0, 0)}}
		}
		logger.Infof("indexjob: live NTFS unavailable for drive %c, falling back to dirwalk: %v", r.driveLetter, err)
		accessDenied = errors.Is(err, ntfs.ErrAccessDenied)
	}

	walkResult, err := dirwalk.Walk(r.dirwalkPath, pool, func(scanned int) {
		progress("index", int64(scanned), 0)
	})
	if err != nil {
		logger.Warnf("indexjob: dirwalk of %q failed: %v", r.dirwalkPath, err)
		return rootResult{backend: events.BackendDirwalk, accessDenied: accessDenied}
	}
	return rootResult{items: walkResult.Items, backend: events.BackendDirwalk, accessDenied: accessDenied}
}

// resumeOrEnumerate restores the volume's node map from its persisted
// raw snapshot when the journal still honors the saved id and cursor,
// so startup after a clean run costs one journal query plus the delta
// instead of a full MFT scan.
// Anything else — no snapshot, invalidated journal, open failure —
// falls through to a full enumeration.
func resumeOrEnumerate(driveLetter byte, store *snapshot.Store, progress func(phase string, current, total int64)) (*ntfs.VolumeState, error) {
	if snap, ok := store.LoadNtfsSnapshot(driveLetter); ok {
		nodes := make(map[uint64]ntfs.Node, len(snap.Nodes))
		for _, n := range snap.Nodes {
			nodes[n.ID] = ntfs.Node{
				ParentID:         n.ParentID,
				Name:             n.Name,
				IsDir:            n.IsDir,
				ModifiedUnixSecs: n.ModifiedUnixSecs,
				FileAttributes:   n.FileAttributes,
			}
		}
		v, err := ntfs.ResumeFromSnapshot(driveLetter, snap.JournalID, snap.NextUSN, nodes)
		if err == nil {
			logger.Infof("indexjob: resumed drive %c from snapshot (%d nodes, usn %d)", driveLetter, len(nodes), snap.NextUSN)
			return v, nil
		}
		logger.Infof("indexjob: snapshot resume for drive %c not possible, enumerating: %v", driveLetter, err)
	}

	return ntfs.Enumerate(driveLetter, func(current, total int64) {
		progress("index", current, total)
	})
}

func filterByFolder(items []corpus.SearchItem, lowerPrefix string) []corpus.SearchItem {
	out := items[:0]
	for _, it := range items {
		if hasLowerPrefix(it.Path, lowerPrefix) {
			out = append(out, it)
		}
	}
	return out
}

func hasLowerPrefix(path, lowerPrefix string) bool {
	if len(path) < len(lowerPrefix) {
		return false
	}
	for i := 0; i < len(lowerPrefix); i++ {
		c := path[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != lowerPrefix[i] {
			return false
		}
	}
	return true
}

func snapshotItemsToCorpus(items []snapshot.SnapshotItem) []corpus.SearchItem {
	out := make([]corpus.SearchItem, len(items))
	for i, it := range items {
		out[i] = corpus.SearchItem{Path: it.Path, ModifiedUnixSecs: it.ModifiedUnixSecs}
	}
	return out
}

func corpusItemsToSnapshot(items []corpus.SearchItem) []snapshot.SnapshotItem {
	out := make([]snapshot.SnapshotItem, len(items))
	for i, it := range items {
		out[i] = snapshot.SnapshotItem{Path: it.Path, ModifiedUnixSecs: it.ModifiedUnixSecs}
	}
	return out
}

// runLive tails every successfully enumerated volume's USN journal
// until ctx is cancelled, one goroutine per volume under a shared
// errgroup. A single volume's permanent
// loss is absorbed and logged rather than propagated, so the other
// volumes in an AllLocalDrives scope keep tailing.
func (j *Job) runLive(ctx context.Context, live []*liveVolume, store *snapshot.Store, cfg config.IndexConfig, clk clock.Clock, m *metrics.Metrics) {
	var checkpointsMu sync.Mutex
	checkpoints := make(map[byte]snapshot.Checkpoint, len(live))
	for _, lv := range live {
		checkpoints[lv.state.DriveLetter] = snapshot.Checkpoint{
			Drive: lv.state.DriveLetter, JournalID: lv.state.JournalID, NextUSN: lv.state.NextUSN,
		}
	}
	persistCheckpoints := func() {
		checkpointsMu.Lock()
		snap := make([]snapshot.Checkpoint, 0, len(checkpoints))
		for _, c := range checkpoints {
			snap = append(snap, c)
		}
		checkpointsMu.Unlock()
		if err := store.SaveCheckpoints(snap); err != nil {
			logger.Warnf("indexjob: writing USN checkpoints: %v", err)
		}
	}

	// errgroup cancellation is used only for the shared shutdown path
	// (ctx cancellation from Stop); per-volume goroutines swallow their
	// own permanent failures below so they never trip g's cancellation.
	g, gctx := errgroup.WithContext(ctx)

	for _, lv := range live {
		lv := lv
		g.Go(func() error {
			j.pollVolume(gctx, lv, store, cfg, clk, m, &checkpointsMu, checkpoints, persistCheckpoints)
			return nil
		})
	}
	_ = g.Wait()

	// Final flush on graceful shutdown, then release every volume
	// handle — the job is being retired.
	for _, lv := range live {
		store.SaveNtfsSnapshotAsync(buildNtfsSnapshot(lv.state))
		lv.state.Close()
	}
	persistCheckpoints()
}

func (j *Job) pollVolume(ctx context.Context, lv *liveVolume, store *snapshot.Store, cfg config.IndexConfig, clk clock.Clock, m *metrics.Metrics, checkpointsMu *sync.Mutex, checkpoints map[byte]snapshot.Checkpoint, persistCheckpoints func()) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if j.paused.Load() {
			select {
			case <-ctx.Done():
				return
			case <-clk.After(cfg.RecoveryBackoff):
			}
			continue
		}

		batch, err := ntfs.Poll(lv.state)
		if err != nil {
			m.RecordJournalPollFailure(ctx)
			logger.Warnf("indexjob: poll failed for drive %c, attempting recovery: %v", lv.state.DriveLetter, err)

			resumable, rerr := ntfs.ReopenAndRecover(lv.state)
			if rerr != nil || !resumable {
				fresh, eerr := ntfs.Enumerate(lv.state.DriveLetter, nil)
				if eerr != nil {
					logger.Errorf("indexjob: drive %c permanently lost, ending its live poll: %v", lv.state.DriveLetter, eerr)
					return
				}
				lv.state = fresh
				items := fresh.Items()
				j.emit(ctx, events.IndexEvent{Kind: events.IndexDone, Items: items, Backend: events.BackendNtfsMft, Live: true})
			}

			select {
			case <-ctx.Done():
				return
			case <-clk.After(cfg.RecoveryBackoff):
			}
			continue
		}

		if batch.ChangedEntries > 0 || len(batch.DeletedPaths) > 0 {
			j.emit(ctx, events.IndexEvent{
				Kind:           events.IndexDelta,
				Upserts:        batch.Upserts,
				DeletedPaths:   batch.DeletedPaths,
				ChangedEntries: batch.ChangedEntries,
			})
			m.RecordDelta(ctx, len(batch.Upserts), len(batch.DeletedPaths))
			lv.unackedChanges += batch.ChangedEntries
		}

		checkpointsMu.Lock()
		checkpoints[lv.state.DriveLetter] = snapshot.Checkpoint{
			Drive: lv.state.DriveLetter, JournalID: lv.state.JournalID, NextUSN: lv.state.NextUSN,
		}
		checkpointsMu.Unlock()
		persistCheckpoints()

		if lv.unackedChanges >= cfg.SnapshotChangeThreshold || clk.Now().Sub(lv.lastSnapshotWrite) >= cfg.SnapshotTimeThreshold {
			writeID := uuid.NewString()
			logger.Debugf("indexjob: opportunistic NTFS snapshot write %s for drive %c", writeID, lv.state.DriveLetter)
			store.SaveNtfsSnapshotAsync(buildNtfsSnapshot(lv.state))
			m.RecordSnapshotWrite(ctx)
			lv.unackedChanges = 0
			lv.lastSnapshotWrite = clk.Now()
		}

		// The read itself is zero-wait; pace the tail so a quiet volume
		// isn't polled in a tight loop. A batch that carried changes
		// loops straight back around to drain any backlog.
		if batch.ChangedEntries == 0 && len(batch.DeletedPaths) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-clk.After(cfg.PollInterval):
			}
		}
	}
}

func buildNtfsSnapshot(v *ntfs.VolumeState) snapshot.NtfsSnapshot {
	nodes := make([]snapshot.NtfsSnapshotNode, 0, len(v.Nodes))
	for id, n := range v.Nodes {
		nodes = append(nodes, snapshot.NtfsSnapshotNode{
			ID: id, ParentID: n.ParentID, Name: n.Name, IsDir: n.IsDir,
			ModifiedUnixSecs: n.ModifiedUnixSecs, FileAttributes: n.FileAttributes,
		})
	}
	return snapshot.NtfsSnapshot{
		Version: snapshot.CurrentVersion, DriveLetter: v.DriveLetter,
		JournalID: v.JournalID, NextUSN: v.NextUSN, Nodes: nodes,
	}
}
