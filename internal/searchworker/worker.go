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

// Package searchworker implements the dedicated search task: a single
// goroutine consuming {SetCorpus, Run, Cancel, Clear} commands and
// emitting {Progress, Done} search events with cancellation and a
// latest-only temporal filter.
package searchworker

import (
	"sort"
	"strings"

	"github.com/wizmini/wizcore/internal/clock"
	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/events"
)

// Worker runs the search scan loop on its own goroutine.
type Worker struct {
	cmdCh   chan Command
	eventCh chan events.SearchEvent
	done    chan struct{}

	clock         clock.Clock
	resultCap     int
	scanBatchSize int

	// view is only ever touched from the run() goroutine.
	view corpusView
}

type corpusView struct {
	items             []corpus.SearchItem
	recentEventByPath map[string]int64
}

// New builds a Worker. Call Start to launch its goroutine.
func New(c clock.Clock, resultCap, scanBatchSize int) *Worker {
	return &Worker{
		cmdCh:         make(chan Command, 8),
		eventCh:       make(chan events.SearchEvent, 64),
		done:          make(chan struct{}),
		clock:         c,
		resultCap:     resultCap,
		scanBatchSize: scanBatchSize,
	}
}

// Commands returns the channel callers send Command values on.
func (w *Worker) Commands() chan<- Command { return w.cmdCh }

// Events returns the channel the controller drains SearchEvents from.
func (w *Worker) Events() <-chan events.SearchEvent { return w.eventCh }

// Start launches the worker's goroutine.
func (w *Worker) Start() { go w.run() }

// Stop signals the goroutine to exit and waits for it.
func (w *Worker) Stop() {
	close(w.cmdCh)
	<-w.done
}

// run is the single dispatch loop. A Run command hands control to
// runScan, which drains the queue between batches so any later command
// pre-empts the scan in progress; the pre-empting
// command is returned rather than consumed twice, so the next loop
// iteration dispatches it normally.
func (w *Worker) run() {
	defer close(w.done)

	var pending *Command
	for {
		var cmd Command
		if pending != nil {
			cmd = *pending
			pending = nil
		} else {
			next, ok := <-w.cmdCh
			if !ok {
				return
			}
			cmd = next
		}

		switch cmd.Kind {
		case CmdSetCorpus:
			w.view = corpusView{items: cmd.Items, recentEventByPath: cmd.RecentEventByPath}
		case CmdClear:
			w.view = corpusView{}
		case CmdCancel:
			// No run is in flight between dispatch iterations; a no-op.
		case CmdRun:
			next, closed := w.runScan(cmd)
			if closed {
				return
			}
			pending = next
		}
	}
}

// recencyOf returns max(recent-event-ts, mtime) for item, the ranking
// key latest-only mode sorts and filters by.
func recencyOf(view corpusView, item corpus.SearchItem) int64 {
	best := item.ModifiedUnixSecs
	if ts, ok := view.recentEventByPath[item.Path]; ok && ts > best {
		best = ts
	}
	return best
}

// runScan executes one Run command against w.view. It returns the
// command that pre-empted it (nil if the scan ran to completion), and
// whether the command channel was closed mid-scan.
func (w *Worker) runScan(cmd Command) (preempted *Command, closed bool) {
	view := w.view
	now := w.clock.Now().Unix()
	cutoff := now - int64(cmd.LatestWindowSecs.Seconds())

	if cmd.LatestOnly && cmd.QueryLower == "" {
		var matches []corpus.SearchItem
		for _, item := range view.items {
			if recencyOf(view, item) >= cutoff {
				matches = append(matches, item)
			}
		}
		sort.SliceStable(matches, func(i, j int) bool {
			return recencyOf(view, matches[i]) > recencyOf(view, matches[j])
		})
		if len(matches) > w.resultCap {
			matches = matches[:w.resultCap]
		}
		w.emit(events.SearchEvent{Kind: events.SearchDone, Generation: cmd.Generation, Items: matches})
		return nil, false
	}

	matchQuery := compileMatcher(cmd.QueryLower)

	var results []corpus.SearchItem
	scanned := 0
	for scanned < len(view.items) {
		end := scanned + w.scanBatchSize
		if end > len(view.items) {
			end = len(view.items)
		}

		for i := scanned; i < end; i++ {
			item := view.items[i]
			if cmd.LatestOnly && recencyOf(view, item) < cutoff {
				continue
			}
			filenameLower := strings.ToLower(filenameOf(item.Path))
			pathLower := strings.ToLower(item.Path)
			if matchQuery(filenameLower, pathLower) {
				results = append(results, item)
				if len(results) >= w.resultCap {
					break
				}
			}
		}
		scanned = end

		select {
		case next, ok := <-w.cmdCh:
			if !ok {
				return nil, true
			}
			return &next, false
		default:
		}

		w.emit(events.SearchEvent{Kind: events.SearchProgress, Generation: cmd.Generation, Scanned: scanned, Total: len(view.items)})

		if len(results) >= w.resultCap {
			break
		}
	}

	if cmd.LatestOnly {
		sort.SliceStable(results, func(i, j int) bool {
			return recencyOf(view, results[i]) > recencyOf(view, results[j])
		})
	}
	w.emit(events.SearchEvent{Kind: events.SearchDone, Generation: cmd.Generation, Items: results})
	return nil, false
}

func (w *Worker) emit(e events.SearchEvent) {
	w.eventCh <- e
}
