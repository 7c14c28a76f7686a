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

// Package dirwalk implements the non-privileged directory-walk
// fallback used when live NTFS access is unavailable — no elevation,
// no journal, just a recursive file-only listing.
// Fan-out across subdirectories is bounded by internal/workerpool so
// a deeply nested tree doesn't spawn a goroutine per directory.
package dirwalk

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wizmini/wizcore/internal/corpus"
	"github.com/wizmini/wizcore/internal/logger"
	"github.com/wizmini/wizcore/internal/workerpool"
)

// progressInterval is how many entries accumulate between onProgress
// calls; dirwalk never knows a total up front.
const progressInterval = 500

// Result is the outcome of one Walk call.
type Result struct {
	Items []corpus.SearchItem
}

// Walk recursively lists every file under root, never following
// symbolic links, and reports progress via onProgress every 500
// entries (total is always 0 — dirwalk has no cheap way to know the
// total up front). Every item's ModifiedUnixSecs is the unknown
// sentinel: dirwalk does not stat files for mtime, it only reports
// their existence and path.
func Walk(root string, pool *workerpool.Pool, onProgress func(scanned int)) (Result, error) {
	var (
		mu      sync.Mutex
		items   []corpus.SearchItem
		wg      sync.WaitGroup
		rootErr error
	)

	var walkDir func(dir string, priority bool)
	walkDir = func(dir string, priority bool) {
		defer wg.Done()

		entries, err := os.ReadDir(dir)
		if err != nil {
			// Only an unreadable root fails the walk; an unreadable
			// subdirectory (junction, ACL-protected system folder) is
			// skipped so one denied directory doesn't blank the scope.
			if dir == root {
				rootErr = err
			} else {
				logger.Debugf("dirwalk: skipping unreadable directory %q: %v", dir, err)
			}
			return
		}

		for _, e := range entries {
			if e.Type()&fs.ModeSymlink != 0 {
				continue // never follow symlinks
			}
			full := filepath.Join(dir, e.Name())

			if e.IsDir() {
				wg.Add(1)
				task := func() { walkDir(full, false) }
				// TrySchedule, not Schedule: walkDir runs on pool workers
				// itself, and a blocking enqueue from inside a task can
				// deadlock once the queue fills. Saturation degrades to an
				// inline recursive walk instead.
				if pool == nil || !pool.TrySchedule(priority, task) {
					task()
				}
				continue
			}

			mu.Lock()
			items = append(items, corpus.SearchItem{Path: full, ModifiedUnixSecs: corpus.UnknownModTime})
			n := len(items)
			mu.Unlock()

			if n%progressInterval == 0 && onProgress != nil {
				onProgress(n)
			}
		}
	}

	wg.Add(1)
	walkDir(root, true)
	wg.Wait()

	if onProgress != nil {
		mu.Lock()
		onProgress(len(items))
		mu.Unlock()
	}

	if rootErr != nil {
		return Result{}, rootErr
	}
	return Result{Items: items}, nil
}
