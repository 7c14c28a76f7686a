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

// Package metrics wires the engine's otel counters and histograms:
// indexed-file counts, search latency, and delta-batch sizes — the
// handful of signals this engine actually emits.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// BackendKey annotates which enumeration path produced an index Done.
	BackendKey = "backend"
	// ScopeKey annotates the active SearchScope label.
	ScopeKey = "scope"
)

var indexMeter = otel.Meter("wizcore_index")
var searchMeter = otel.Meter("wizcore_search")

var backendAttributeSets sync.Map

func backendAttributeSet(backend string) metric.MeasurementOption {
	if v, ok := backendAttributeSets.Load(backend); ok {
		return v.(metric.MeasurementOption)
	}
	opt := metric.WithAttributeSet(attribute.NewSet(attribute.String(BackendKey, backend)))
	v, _ := backendAttributeSets.LoadOrStore(backend, opt)
	return v.(metric.MeasurementOption)
}

// Metrics bundles every instrument the Index Job and Search Worker
// report into, so callers pass one value around instead of N globals.
type Metrics struct {
	indexedFilesCount   metric.Int64Counter
	indexDeltaUpserts   metric.Int64Counter
	indexDeltaDeletes   metric.Int64Counter
	indexJobDuration    metric.Float64Histogram
	searchLatency       metric.Float64Histogram
	searchResultCount   metric.Int64Histogram
	snapshotWriteCount  metric.Int64Counter
	journalPollFailures metric.Int64Counter
}

// New constructs the instrument set against the global otel
// MeterProvider. Callers install a provider (e.g. via
// go.opentelemetry.io/otel/sdk/metric and the stdout exporter, the way
// cmd/ does for this engine) before calling New, or accept the
// no-op provider otel defaults to.
func New() (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.indexedFilesCount, err = indexMeter.Int64Counter("wizcore.index.files_indexed",
		metric.WithDescription("Number of files present in the corpus after the most recent full enumeration or delta.")); err != nil {
		return nil, err
	}
	if m.indexDeltaUpserts, err = indexMeter.Int64Counter("wizcore.index.delta_upserts",
		metric.WithDescription("Count of upserts applied from USN journal delta batches.")); err != nil {
		return nil, err
	}
	if m.indexDeltaDeletes, err = indexMeter.Int64Counter("wizcore.index.delta_deletes",
		metric.WithDescription("Count of deletes applied from USN journal delta batches.")); err != nil {
		return nil, err
	}
	if m.indexJobDuration, err = indexMeter.Float64Histogram("wizcore.index.job_duration_seconds",
		metric.WithDescription("Wall-clock time from index job start to its first Done event.")); err != nil {
		return nil, err
	}
	if m.searchLatency, err = searchMeter.Float64Histogram("wizcore.search.latency_seconds",
		metric.WithDescription("Wall-clock time from Run dispatch to the matching Done event.")); err != nil {
		return nil, err
	}
	if m.searchResultCount, err = searchMeter.Int64Histogram("wizcore.search.result_count",
		metric.WithDescription("Number of items returned by a completed search Run.")); err != nil {
		return nil, err
	}
	if m.snapshotWriteCount, err = indexMeter.Int64Counter("wizcore.index.snapshot_writes",
		metric.WithDescription("Count of scope and NTFS snapshot writes, async and synchronous.")); err != nil {
		return nil, err
	}
	if m.journalPollFailures, err = indexMeter.Int64Counter("wizcore.index.journal_poll_failures",
		metric.WithDescription("Count of USN journal poll failures that triggered volume recovery.")); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordFilesIndexed sets the current corpus size for backend (a
// gauge-like counter add relative to the previous report is avoided —
// callers should prefer RecordDelta for incremental reporting and call
// this once per completed Done).
func (m *Metrics) RecordFilesIndexed(ctx context.Context, count int, backend string) {
	if m == nil {
		return
	}
	m.indexedFilesCount.Add(ctx, int64(count), backendAttributeSet(backend))
}

// RecordDelta reports one journal batch's upsert/delete counts.
func (m *Metrics) RecordDelta(ctx context.Context, upserts, deletes int) {
	if m == nil {
		return
	}
	if upserts > 0 {
		m.indexDeltaUpserts.Add(ctx, int64(upserts))
	}
	if deletes > 0 {
		m.indexDeltaDeletes.Add(ctx, int64(deletes))
	}
}

// RecordIndexJobDuration reports the time from job start to first Done.
func (m *Metrics) RecordIndexJobDuration(ctx context.Context, d time.Duration, backend string) {
	if m == nil {
		return
	}
	m.indexJobDuration.Record(ctx, d.Seconds(), backendAttributeSet(backend))
}

// RecordSearch reports one completed Run's latency and result count.
func (m *Metrics) RecordSearch(ctx context.Context, latency time.Duration, resultCount int) {
	if m == nil {
		return
	}
	m.searchLatency.Record(ctx, latency.Seconds())
	m.searchResultCount.Record(ctx, int64(resultCount))
}

// RecordSnapshotWrite reports one snapshot write attempt.
func (m *Metrics) RecordSnapshotWrite(ctx context.Context) {
	if m == nil {
		return
	}
	m.snapshotWriteCount.Add(ctx, 1)
}

// RecordJournalPollFailure reports one USN journal poll failure.
func (m *Metrics) RecordJournalPollFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.journalPollFailures.Add(ctx, 1)
}
