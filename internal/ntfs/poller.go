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

package ntfs

import "github.com/wizmini/wizcore/internal/corpus"

// ChangeRecord is one decoded USN journal entry, already translated
// out of the raw Windows USN_RECORD_V2 wire shape (FILETIME converted,
// UTF-16 name decoded) so that ApplyRecords stays platform-independent
// and testable off Windows.
type ChangeRecord struct {
	RecordID         uint64
	ParentID         uint64
	Name             string
	IsDir            bool
	ModifiedUnixSecs int64
	FileAttributes   uint32
	IsDelete         bool
}

// JournalBatch is the event the USN Poller emits after processing one
// read of the journal.
type JournalBatch struct {
	Upserts        []corpus.SearchItem
	DeletedPaths   []string
	ChangedEntries int
}

// ApplyRecords mutates the volume's node map from one batch of
// journal records and returns the resulting path-level batch:
//   - Delete: the record-id and every descendant (BFS over
//     parent_id == id) are removed from the node map; their last
//     known paths are scheduled for deletion.
//   - Create / rename / modify: the node is inserted or replaced and
//     marked changed.
//
// After mutating the map, if anything changed, the path cache is
// cleared once, then every changed non-directory record-id has its
// current path materialized and diffed against ReverseMap to produce
// upserts and old-path deletions.
func (v *VolumeState) ApplyRecords(records []ChangeRecord) JournalBatch {
	changed := make(map[uint64]bool)
	var deletedFromMap []uint64

	for _, rec := range records {
		if rec.IsDelete {
			for _, id := range v.descendants(rec.RecordID) {
				delete(v.Nodes, id)
				deletedFromMap = append(deletedFromMap, id)
			}
			delete(v.Nodes, rec.RecordID)
			deletedFromMap = append(deletedFromMap, rec.RecordID)
			continue
		}

		v.Nodes[rec.RecordID] = Node{
			ParentID:         rec.ParentID,
			Name:             rec.Name,
			IsDir:            rec.IsDir,
			ModifiedUnixSecs: rec.ModifiedUnixSecs,
			FileAttributes:   rec.FileAttributes,
		}
		changed[rec.RecordID] = true
	}

	if len(changed) == 0 && len(deletedFromMap) == 0 {
		return JournalBatch{}
	}

	v.InvalidatePathCache()

	var batch JournalBatch
	batch.ChangedEntries = len(changed)

	for _, id := range deletedFromMap {
		if oldPath, ok := v.ReverseMap[id]; ok {
			batch.DeletedPaths = append(batch.DeletedPaths, oldPath)
			delete(v.ReverseMap, id)
		}
	}

	for id := range changed {
		node := v.Nodes[id]
		if node.IsDir {
			continue // only non-directory entries are reported as searchable items
		}
		path, ok := v.MaterializePath(id)
		if !ok {
			continue
		}
		if oldPath, had := v.ReverseMap[id]; had && oldPath != path {
			batch.DeletedPaths = append(batch.DeletedPaths, oldPath)
		}
		v.ReverseMap[id] = path
		batch.Upserts = append(batch.Upserts, corpus.SearchItem{
			Path:             path,
			ModifiedUnixSecs: node.ModifiedUnixSecs,
		})
	}

	return batch
}
