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

package clock

import (
	"container/heap"
	"sync"
	"time"
)

// afterRequest is one pending After call, ordered by targetTime in a
// SimulatedClock's min-heap. seq breaks ties between requests sharing
// a target time so they fire in the order After was called.
type afterRequest struct {
	targetTime time.Time
	seq        uint64
	ch         chan time.Time
}

// afterHeap implements container/heap.Interface over pending requests,
// always exposing the earliest target time at index 0. The controller
// can carry several outstanding timers at once (query debounce, the
// refresh cooldown, the visibility debounce, per-volume recovery
// backoff) so SetTime/AdvanceTime pop only what's actually due instead
// of rescanning every pending request on each call.
type afterHeap []*afterRequest

func (h afterHeap) Len() int { return len(h) }
func (h afterHeap) Less(i, j int) bool {
	if h[i].targetTime.Equal(h[j].targetTime) {
		return h[i].seq < h[j].seq
	}
	return h[i].targetTime.Before(h[j].targetTime)
}
func (h afterHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *afterHeap) Push(x any) { *h = append(*h, x.(*afterRequest)) }
func (h *afterHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// SimulatedClock is a Clock that only advances when SetTime or
// AdvanceTime is called. The zero value is a clock at the zero time;
// most tests construct one with NewSimulatedClock at a convenient
// epoch instead.
type SimulatedClock struct {
	mu      sync.RWMutex
	t       time.Time
	pending afterHeap
	seq     uint64
}

func NewSimulatedClock(startTime time.Time) *SimulatedClock {
	return &SimulatedClock{t: startTime}
}

func (sc *SimulatedClock) Now() time.Time {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.t
}

// SetTime moves the clock to t, firing any pending After calls whose
// target time has been reached or passed.
func (sc *SimulatedClock) SetTime(t time.Time) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.t = t
	sc.fireDue()
}

// AdvanceTime moves the clock forward by d.
func (sc *SimulatedClock) AdvanceTime(d time.Duration) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.t = sc.t.Add(d)
	sc.fireDue()
}

// After mirrors time.After: a non-positive duration fires immediately
// with the current simulated time; otherwise the request is queued
// until SetTime/AdvanceTime crosses the target.
func (sc *SimulatedClock) After(d time.Duration) <-chan time.Time {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	ch := make(chan time.Time, 1)
	target := sc.t.Add(d)
	if !target.After(sc.t) {
		ch <- sc.t
		return ch
	}

	sc.seq++
	heap.Push(&sc.pending, &afterRequest{targetTime: target, seq: sc.seq, ch: ch})
	return ch
}

// PendingCount reports how many scheduled After calls have not yet
// fired, useful for tests asserting a debounce timer was actually
// queued (or cancelled/superseded before it could fire).
func (sc *SimulatedClock) PendingCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.pending)
}

// fireDue pops every request whose target time the current simulated
// time has reached or passed, in target-time order. Must be called
// with sc.mu held.
func (sc *SimulatedClock) fireDue() {
	for sc.pending.Len() > 0 && !sc.t.Before(sc.pending[0].targetTime) {
		ar := heap.Pop(&sc.pending).(*afterRequest)
		ar.ch <- ar.targetTime
	}
}
