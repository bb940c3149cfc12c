// Package store is the concurrent in-memory hub for decoded telemetry: a
// bounded detection buffer, per-batch bounded track series, a subscriber
// registry for live views, and range/sector filtered queries. Every
// transport goroutine writes into one store instance and any number of
// reader goroutines query it; a single store-wide mutex guards all state.
//
// The store is constructed explicitly by the application root and passed to
// whoever needs it. Ingestion never fails: overflow is handled by evicting
// the oldest records, and a periodic cleanup pass trims the buffers back to
// their keep thresholds.
package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/skyfence/radarlink/internal/monitoring"
	"github.com/skyfence/radarlink/internal/radar"
	"github.com/skyfence/radarlink/internal/timeutil"
)

// CleanupInterval is the cadence of the background trim pass. The pass is
// count-based: no per-record timestamps exist, only insertion order, so the
// keep thresholds approximate an age limit at nominal data rates.
const CleanupInterval = 30 * time.Second

// ViewFuncs is the callback set a registered view receives events through.
// Any nil member is simply skipped. Callbacks run outside the store lock,
// so a view may call back into the store; callbacks for a single event run
// sequentially per subscriber with no ordering guarantee between
// subscribers.
type ViewFuncs struct {
	OnDetection func(radar.PointRecord)
	OnTrack     func(radar.PointRecord)
	OnClear     func()
}

var (
	invalidPoints = metrics.NewCounter("radarlink_store_invalid_points_total")
	detIngested   = metrics.NewCounter("radarlink_store_detections_ingested_total")
	trkIngested   = metrics.NewCounter("radarlink_store_tracks_ingested_total")
)

// Store is the radar data hub. The zero value is not usable; construct
// with New.
type Store struct {
	clock timeutil.Clock

	mu         sync.Mutex
	detections fifo
	tracks     map[uint16]*fifo
	classes    map[uint16]radar.TargetClass
	views      map[string]ViewFuncs
}

// New returns an empty store. Run the cleanup pass with StartCleanup, or
// drive TrimOldData manually.
func New() *Store {
	return &Store{
		clock:   timeutil.RealClock{},
		tracks:  make(map[uint16]*fifo),
		classes: make(map[uint16]radar.TargetClass),
		views:   make(map[string]ViewFuncs),
	}
}

// ProcessDetection appends a detection to the bounded buffer, evicting the
// oldest record if the buffer is at capacity, then notifies every
// registered view. Invalid points are counted and dropped.
func (s *Store) ProcessDetection(p radar.PointRecord) {
	if !p.Valid() {
		invalidPoints.Inc()
		monitoring.Logf("store: dropped invalid detection: range=%.1f azimuth=%.2f elevation=%.2f",
			p.Range, p.Azimuth, p.Elevation)
		return
	}
	p.Kind = radar.Detection

	s.mu.Lock()
	s.detections.push(p, radar.MaxDetections)
	views := s.viewsLocked()
	s.mu.Unlock()

	detIngested.Inc()
	for _, v := range views {
		if v.OnDetection != nil {
			v.OnDetection(p)
		}
	}
}

// ProcessTrack appends a track point to its batch's series, creating the
// series lazily on the first point of a new batch and evicting the oldest
// point of that batch on overflow, then notifies every registered view.
func (s *Store) ProcessTrack(p radar.PointRecord) {
	if !p.Valid() {
		invalidPoints.Inc()
		monitoring.Logf("store: dropped invalid track point: batch=%d range=%.1f azimuth=%.2f",
			p.BatchID, p.Range, p.Azimuth)
		return
	}
	p.Kind = radar.Track

	s.mu.Lock()
	series, ok := s.tracks[p.BatchID]
	if !ok {
		series = &fifo{}
		s.tracks[p.BatchID] = series
	}
	series.push(p, radar.MaxTrackPoints)
	views := s.viewsLocked()
	s.mu.Unlock()

	trkIngested.Inc()
	for _, v := range views {
		if v.OnTrack != nil {
			v.OnTrack(p)
		}
	}
}

// SetBatchClass records the classifier's verdict for a track batch.
func (s *Store) SetBatchClass(batchID uint16, class radar.TargetClass) {
	s.mu.Lock()
	s.classes[batchID] = class
	s.mu.Unlock()
}

// BatchClass returns the recorded classification for a batch, if any.
func (s *Store) BatchClass(batchID uint16) (radar.TargetClass, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[batchID]
	return c, ok
}

// DetectionsInRange returns a copy of every buffered detection whose range
// lies in [minRange,maxRange] and whose azimuth lies in the sector
// [minAngle,maxAngle]. The sector wraps through 0° when minAngle exceeds
// maxAngle after normalisation.
func (s *Store) DetectionsInRange(minRange, maxRange, minAngle, maxAngle float64) []radar.PointRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []radar.PointRecord
	s.detections.each(func(p radar.PointRecord) {
		if inRange(p, minRange, maxRange, minAngle, maxAngle) {
			out = append(out, p)
		}
	})
	return out
}

// TracksInRange is DetectionsInRange for track points. A negative batch
// selects every batch, in ascending batch order; otherwise only the series
// with that batch ID is searched. Batch IDs are 16-bit on the wire, so a
// selector past that range matches nothing.
func (s *Store) TracksInRange(minRange, maxRange, minAngle, maxAngle float64, batch int) []radar.PointRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []radar.PointRecord
	collect := func(series *fifo) {
		series.each(func(p radar.PointRecord) {
			if inRange(p, minRange, maxRange, minAngle, maxAngle) {
				out = append(out, p)
			}
		})
	}

	if batch >= 0 {
		if batch <= math.MaxUint16 {
			if series, ok := s.tracks[uint16(batch)]; ok {
				collect(series)
			}
		}
		return out
	}
	for _, id := range s.batchIDsLocked() {
		collect(s.tracks[id])
	}
	return out
}

// BatchIDs returns the identifiers of all live track batches in ascending
// order.
func (s *Store) BatchIDs() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchIDsLocked()
}

func (s *Store) batchIDsLocked() []uint16 {
	ids := make([]uint16, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DetectionCount returns the number of buffered detections.
func (s *Store) DetectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detections.len()
}

// TrackCount returns the number of buffered track points across all
// batches.
func (s *Store) TrackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, series := range s.tracks {
		n += series.len()
	}
	return n
}

// RemoveBatch drops one track series and its classification.
func (s *Store) RemoveBatch(batchID uint16) {
	s.mu.Lock()
	delete(s.tracks, batchID)
	delete(s.classes, batchID)
	s.mu.Unlock()
}

// ClearAllData empties the detection buffer, every track series and the
// classification table, then notifies every registered view.
func (s *Store) ClearAllData() {
	s.mu.Lock()
	s.detections = fifo{}
	s.tracks = make(map[uint16]*fifo)
	s.classes = make(map[uint16]radar.TargetClass)
	views := s.viewsLocked()
	s.mu.Unlock()

	for _, v := range views {
		if v.OnClear != nil {
			v.OnClear()
		}
	}
}

// RegisterView subscribes a consumer under an opaque identifier. A
// duplicate identifier is silently ignored; the original registration
// stays in place.
func (s *Store) RegisterView(id string, v ViewFuncs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.views[id]; exists {
		return
	}
	s.views[id] = v
}

// UnregisterView removes a subscriber. Unknown identifiers are a no-op.
func (s *Store) UnregisterView(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, id)
}

// viewsLocked snapshots the registered callbacks so notification can happen
// outside the lock. Caller holds s.mu.
func (s *Store) viewsLocked() []ViewFuncs {
	if len(s.views) == 0 {
		return nil
	}
	out := make([]ViewFuncs, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, v)
	}
	return out
}

// TrimOldData is the cleanup pass: the detection buffer is trimmed to its
// keep threshold, each track series to its own, and emptied series are
// removed. Trimming is strictly oldest-first. Count thresholds stand in
// for record age, which is not tracked.
func (s *Store) TrimOldData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detections.trimTo(radar.KeepDetections)
	for id, series := range s.tracks {
		series.trimTo(radar.KeepTrackPoints)
		if series.len() == 0 {
			delete(s.tracks, id)
			delete(s.classes, id)
		}
	}
}

// StartCleanup runs TrimOldData every CleanupInterval until ctx is
// cancelled.
func (s *Store) StartCleanup(ctx context.Context) {
	ticker := s.clock.NewTicker(CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				s.TrimOldData()
			}
		}
	}()
}

// inRange applies the inclusive range filter and the wrapping sector
// filter.
func inRange(p radar.PointRecord, minRange, maxRange, minAngle, maxAngle float64) bool {
	if float64(p.Range) < minRange || float64(p.Range) > maxRange {
		return false
	}
	return radar.InSector(float64(p.Azimuth), minAngle, maxAngle)
}
