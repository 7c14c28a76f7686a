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

package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/wizmini/wizcore/internal/logger"
)

// writeRequest is one queued asynchronous write; Store's background
// goroutine is the sole writer of any given path, so concurrent
// SaveXAsync calls never race each other on disk.
type writeRequest struct {
	path string
	data []byte
}

// Store roots the engine's three persisted artifacts
// under one state directory and hands scope/NTFS snapshot writes off
// to a single background goroutine, the way internal/logger's
// AsyncLogger hands log writes off to one goroutine so the caller
// never blocks on disk I/O.
type Store struct {
	dir string

	ch   chan writeRequest
	done chan struct{}
	once sync.Once
}

// NewStore starts the background writer rooted at dir (normally
// config.StateDir()).
func NewStore(dir string) *Store {
	s := &Store{
		dir:  dir,
		ch:   make(chan writeRequest, 32),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	defer close(s.done)
	for req := range s.ch {
		if err := writeFileAtomic(req.path, req.data); err != nil {
			logger.Warnf("snapshot: async write to %s failed: %v", req.path, err)
		}
	}
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) enqueue(path string, data []byte) {
	select {
	case s.ch <- writeRequest{path: path, data: data}:
	default:
		// Queue saturated: write synchronously rather than drop a
		// snapshot, the way a full AsyncLogger buffer drops a log line
		// but a lost snapshot would regress the scenario it exists for
		// (surviving a restart).
		if err := writeFileAtomic(path, data); err != nil {
			logger.Warnf("snapshot: synchronous fallback write to %s failed: %v", path, err)
		}
	}
}

func (s *Store) scopeSnapshotPath(label string) string {
	return filepath.Join(s.dir, "snapshots", "scope-"+sanitizeLabel(label)+".bin")
}

func (s *Store) ntfsSnapshotPath(driveLetter byte) string {
	return filepath.Join(s.dir, "snapshots", string(driveLetter)+".bin")
}

func (s *Store) checkpointPath() string {
	return filepath.Join(s.dir, "usn_checkpoints.txt")
}

func sanitizeLabel(label string) string {
	return string(bytes.ReplaceAll([]byte(label), []byte(":"), []byte("_")))
}

// SaveScopeSnapshotAsync queues snap for a background write.
func (s *Store) SaveScopeSnapshotAsync(snap ScopeIndexSnapshot) {
	var buf bytes.Buffer
	if err := EncodeScopeSnapshot(&buf, snap); err != nil {
		logger.Warnf("snapshot: encoding scope snapshot %q failed: %v", snap.ScopeLabel, err)
		return
	}
	s.enqueue(s.scopeSnapshotPath(snap.ScopeLabel), buf.Bytes())
}

// LoadScopeSnapshot loads the persisted snapshot for label. Any read
// or decode failure — missing file, truncation, version mismatch — is
// treated as "no snapshot" and reported via ok; a decode failure is
// also logged.
func (s *Store) LoadScopeSnapshot(label string) (snap ScopeIndexSnapshot, ok bool) {
	f, err := os.Open(s.scopeSnapshotPath(label))
	if err != nil {
		return ScopeIndexSnapshot{}, false
	}
	defer f.Close()

	snap, err = DecodeScopeSnapshot(f)
	if err != nil {
		logger.Warnf("snapshot: scope snapshot %q unreadable, treating as absent: %v", label, err)
		return ScopeIndexSnapshot{}, false
	}
	return snap, true
}

// SaveNtfsSnapshotAsync queues snap for a background write. The NTFS
// Poller calls this opportunistically once either the change or time
// threshold in internal/config's IndexConfig is crossed, or on
// graceful shutdown.
func (s *Store) SaveNtfsSnapshotAsync(snap NtfsSnapshot) {
	var buf bytes.Buffer
	if err := EncodeNtfsSnapshot(&buf, snap); err != nil {
		logger.Warnf("snapshot: encoding NTFS snapshot for drive %c failed: %v", snap.DriveLetter, err)
		return
	}
	s.enqueue(s.ntfsSnapshotPath(snap.DriveLetter), buf.Bytes())
}

// LoadNtfsSnapshot mirrors LoadScopeSnapshot for a volume's raw node
// map.
func (s *Store) LoadNtfsSnapshot(driveLetter byte) (snap NtfsSnapshot, ok bool) {
	f, err := os.Open(s.ntfsSnapshotPath(driveLetter))
	if err != nil {
		return NtfsSnapshot{}, false
	}
	defer f.Close()

	snap, err = DecodeNtfsSnapshot(f)
	if err != nil {
		logger.Warnf("snapshot: NTFS snapshot for drive %c unreadable, treating as absent: %v", driveLetter, err)
		return NtfsSnapshot{}, false
	}
	return snap, true
}

// SaveCheckpoints rewrites the checkpoint file synchronously — it is
// called after every successful poll, infrequently
// enough and small enough that async handoff buys nothing but
// complexity.
func (s *Store) SaveCheckpoints(checkpoints []Checkpoint) error {
	var buf bytes.Buffer
	if err := EncodeCheckpoints(&buf, checkpoints); err != nil {
		return err
	}
	return writeFileAtomic(s.checkpointPath(), buf.Bytes())
}

// LoadCheckpoints reads and parses the checkpoint file, dropping
// unparseable lines. A missing file yields an empty
// slice, not an error.
func (s *Store) LoadCheckpoints() []Checkpoint {
	f, err := os.Open(s.checkpointPath())
	if err != nil {
		return nil
	}
	defer f.Close()
	return DecodeCheckpoints(f)
}

// Close waits for queued writes to drain. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.ch)
	})
	<-s.done
}
