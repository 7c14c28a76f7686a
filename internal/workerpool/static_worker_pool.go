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

// Package workerpool implements a fixed-size pool of goroutines with
// a priority and a normal task queue. The non-privileged
// directory-walk fallback uses it to
// bound fan-out across subdirectories without spawning a goroutine per
// directory.
package workerpool

import (
	"fmt"
	"sync"
)

// Task is a unit of work submitted to the pool. It receives no
// arguments and returns nothing; callers close over whatever state
// they need.
type Task func()

// Pool runs queued Tasks across a fixed number of priority and normal
// worker goroutines. Priority workers drain the priority queue first
// and fall back to the normal queue when it is empty; normal workers
// only ever drain the normal queue. This lets urgent work (e.g. the
// root scope's initial directory listing) preempt background walk
// fan-out without starving it entirely.
type Pool struct {
	priorityCh chan Task
	normalCh   chan Task
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// NewStaticWorkerPool starts priorityWorkers goroutines dedicated to
// the priority queue (which also drain the normal queue when idle) and
// normalWorkers goroutines dedicated to the normal queue. At least one
// worker of either kind is required.
func NewStaticWorkerPool(priorityWorkers, normalWorkers uint32) (*Pool, error) {
	if priorityWorkers == 0 && normalWorkers == 0 {
		return nil, fmt.Errorf("workerpool: at least one priority or normal worker is required")
	}

	p := &Pool{
		priorityCh: make(chan Task, 256),
		normalCh:   make(chan Task, 256),
	}

	for i := uint32(0); i < priorityWorkers; i++ {
		p.wg.Add(1)
		go p.runPriority()
	}
	for i := uint32(0); i < normalWorkers; i++ {
		p.wg.Add(1)
		go p.runNormal()
	}
	return p, nil
}

func (p *Pool) runPriority() {
	defer p.wg.Done()
	for {
		select {
		case t, ok := <-p.priorityCh:
			if !ok {
				for t := range p.normalCh {
					t()
				}
				return
			}
			t()
		default:
			select {
			case t, ok := <-p.priorityCh:
				if !ok {
					for t := range p.normalCh {
						t()
					}
					return
				}
				t()
			case t, ok := <-p.normalCh:
				if !ok {
					for t := range p.priorityCh {
						t()
					}
					return
				}
				t()
			}
		}
	}
}

func (p *Pool) runNormal() {
	defer p.wg.Done()
	for t := range p.normalCh {
		t()
	}
}

// Schedule enqueues task onto the priority queue when priority is
// true, otherwise the normal queue. It is safe to call concurrently.
func (p *Pool) Schedule(priority bool, task Task) {
	if priority {
		p.priorityCh <- task
	} else {
		p.normalCh <- task
	}
}

// TrySchedule enqueues task like Schedule but never blocks: it reports
// false when the target queue is full. Callers that submit tasks from
// inside pool tasks must use this and run the task inline on false —
// blocking on a full queue from a worker goroutine can deadlock the
// pool once every worker is a blocked producer.
func (p *Pool) TrySchedule(priority bool, task Task) bool {
	ch := p.normalCh
	if priority {
		ch = p.priorityCh
	}
	select {
	case ch <- task:
		return true
	default:
		return false
	}
}

// Stop closes both queues and waits for in-flight and queued tasks to
// drain. Stop is idempotent and safe to call on a nil Pool.
func (p *Pool) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.priorityCh)
		close(p.normalCh)
	})
	p.wg.Wait()
}
