package store

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/skyfence/radarlink/internal/radar"
	"github.com/skyfence/radarlink/internal/timeutil"
)

func det(rng, azi float32) radar.PointRecord {
	return radar.PointRecord{Range: rng, Azimuth: azi, Elevation: 1.5, SNR: 12}
}

func trk(batch uint16, rng, azi float32) radar.PointRecord {
	p := det(rng, azi)
	p.BatchID = batch
	return p
}

func TestDetectionEviction(t *testing.T) {
	s := New()
	for i := 0; i < radar.MaxDetections+5; i++ {
		s.ProcessDetection(det(float32(i), 10))
	}
	if got := s.DetectionCount(); got != radar.MaxDetections {
		t.Fatalf("DetectionCount = %d, want %d", got, radar.MaxDetections)
	}
	// The five oldest records must be gone and insertion order preserved.
	all := s.DetectionsInRange(0, 1e6, 0, 359.9)
	if len(all) != radar.MaxDetections {
		t.Fatalf("query returned %d records, want %d", len(all), radar.MaxDetections)
	}
	if all[0].Range != 5 {
		t.Errorf("oldest surviving range = %v, want 5", all[0].Range)
	}
	if last := all[len(all)-1].Range; last != float32(radar.MaxDetections+4) {
		t.Errorf("newest range = %v, want %d", last, radar.MaxDetections+4)
	}
}

func TestTrackEvictionPerBatch(t *testing.T) {
	s := New()
	for i := 0; i < radar.MaxTrackPoints+3; i++ {
		s.ProcessTrack(trk(7, float32(i), 45))
	}
	for i := 0; i < 10; i++ {
		s.ProcessTrack(trk(9, float32(i), 45))
	}
	if got := s.TrackCount(); got != radar.MaxTrackPoints+10 {
		t.Fatalf("TrackCount = %d, want %d", got, radar.MaxTrackPoints+10)
	}
	pts := s.TracksInRange(0, 1e6, 0, 359.9, 7)
	if len(pts) != radar.MaxTrackPoints {
		t.Fatalf("batch 7 holds %d points, want %d", len(pts), radar.MaxTrackPoints)
	}
	if pts[0].Range != 3 {
		t.Errorf("batch 7 oldest range = %v, want 3", pts[0].Range)
	}
}

func TestInvalidPointsDropped(t *testing.T) {
	s := New()
	bad := []radar.PointRecord{
		{Range: float32(math.NaN()), Azimuth: 10},
		{Range: -1, Azimuth: 10},
		{Range: 2e6, Azimuth: 10},
		{Range: 100, Azimuth: 360},
		{Range: 100, Azimuth: -0.1},
		{Range: 100, Azimuth: 10, Elevation: 91},
	}
	for _, p := range bad {
		s.ProcessDetection(p)
		s.ProcessTrack(p)
	}
	if n := s.DetectionCount(); n != 0 {
		t.Errorf("DetectionCount = %d after invalid input, want 0", n)
	}
	if n := s.TrackCount(); n != 0 {
		t.Errorf("TrackCount = %d after invalid input, want 0", n)
	}
}

func TestSectorQueries(t *testing.T) {
	s := New()
	for _, azi := range []float32{5, 180, 355} {
		s.ProcessDetection(det(1000, azi))
	}

	cases := []struct {
		name     string
		min, max float64
		want     []float32
	}{
		{"plain sector", 0, 90, []float32{5}},
		{"inclusive bounds", 5, 180, []float32{5, 180}},
		{"wraps through north", 350, 10, []float32{5, 355}},
		{"complement of wrap", 10, 350, []float32{180}},
		{"full circle", 0, 359.999, []float32{5, 180, 355}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.DetectionsInRange(0, 1e6, tc.min, tc.max)
			if len(got) != len(tc.want) {
				t.Fatalf("returned %d records, want %d", len(got), len(tc.want))
			}
			for i, p := range got {
				if p.Azimuth != tc.want[i] {
					t.Errorf("record %d azimuth = %v, want %v", i, p.Azimuth, tc.want[i])
				}
			}
		})
	}
}

func TestRangeBoundsInclusive(t *testing.T) {
	s := New()
	for _, rng := range []float32{99.9, 100, 500, 1000, 1000.1} {
		s.ProcessDetection(det(rng, 45))
	}
	got := s.DetectionsInRange(100, 1000, 0, 359.9)
	if len(got) != 3 {
		t.Fatalf("returned %d records, want 3", len(got))
	}
	if got[0].Range != 100 || got[2].Range != 1000 {
		t.Errorf("bounds not inclusive: got %v .. %v", got[0].Range, got[2].Range)
	}
}

func TestTracksBatchSelector(t *testing.T) {
	s := New()
	s.ProcessTrack(trk(3, 100, 45))
	s.ProcessTrack(trk(1, 200, 45))
	s.ProcessTrack(trk(1, 300, 45))

	one := s.TracksInRange(0, 1e6, 0, 359.9, 1)
	if len(one) != 2 {
		t.Fatalf("batch 1 query returned %d points, want 2", len(one))
	}

	// A negative batch selects every series, ascending by batch ID.
	all := s.TracksInRange(0, 1e6, 0, 359.9, -1)
	if len(all) != 3 {
		t.Fatalf("all-batches query returned %d points, want 3", len(all))
	}
	if all[0].BatchID != 1 || all[2].BatchID != 3 {
		t.Errorf("batch order = %d,%d,%d, want ascending", all[0].BatchID, all[1].BatchID, all[2].BatchID)
	}

	if got := s.TracksInRange(0, 1e6, 0, 359.9, 99); len(got) != 0 {
		t.Errorf("unknown batch returned %d points, want 0", len(got))
	}

	// Selectors beyond the 16-bit ID space must not alias a live series
	// through integer truncation (65537 would otherwise hit batch 1).
	if got := s.TracksInRange(0, 1e6, 0, 359.9, math.MaxUint16+2); len(got) != 0 {
		t.Errorf("out-of-range selector returned %d points, want 0", len(got))
	}
}

func TestTrimOldData(t *testing.T) {
	s := New()
	for i := 0; i < radar.KeepDetections+100; i++ {
		s.ProcessDetection(det(float32(i), 10))
	}
	for i := 0; i < radar.KeepTrackPoints+20; i++ {
		s.ProcessTrack(trk(4, float32(i), 10))
	}

	s.TrimOldData()

	if got := s.DetectionCount(); got != radar.KeepDetections {
		t.Errorf("DetectionCount = %d after trim, want %d", got, radar.KeepDetections)
	}
	if got := s.TrackCount(); got != radar.KeepTrackPoints {
		t.Errorf("TrackCount = %d after trim, want %d", got, radar.KeepTrackPoints)
	}
	// Oldest-first: the survivors are the newest records.
	pts := s.TracksInRange(0, 1e6, 0, 359.9, 4)
	if pts[0].Range != 20 {
		t.Errorf("oldest surviving track range = %v, want 20", pts[0].Range)
	}
}

func TestCleanupLoopTicks(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	s := New()
	s.clock = clock
	for i := 0; i < radar.KeepDetections+50; i++ {
		s.ProcessDetection(det(float32(i), 10))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartCleanup(ctx)

	clock.Advance(CleanupInterval + time.Second)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.DetectionCount() == radar.KeepDetections {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("DetectionCount = %d after cleanup tick, want %d", s.DetectionCount(), radar.KeepDetections)
}

func TestClearAllData(t *testing.T) {
	s := New()
	s.ProcessDetection(det(100, 10))
	s.ProcessTrack(trk(2, 100, 10))
	s.SetBatchClass(2, radar.ClassDrone)

	cleared := false
	s.RegisterView("v", ViewFuncs{OnClear: func() { cleared = true }})
	s.ClearAllData()

	if !cleared {
		t.Error("OnClear not invoked")
	}
	if s.DetectionCount() != 0 || s.TrackCount() != 0 {
		t.Errorf("counts after clear: %d detections, %d tracks", s.DetectionCount(), s.TrackCount())
	}
	if _, ok := s.BatchClass(2); ok {
		t.Error("classification survived ClearAllData")
	}
}

func TestBatchClassification(t *testing.T) {
	s := New()
	if _, ok := s.BatchClass(5); ok {
		t.Fatal("unexpected classification for unseen batch")
	}
	s.SetBatchClass(5, radar.ClassBird)
	if c, ok := s.BatchClass(5); !ok || c != radar.ClassBird {
		t.Errorf("BatchClass(5) = %v,%v, want ClassBird,true", c, ok)
	}
	s.RemoveBatch(5)
	if _, ok := s.BatchClass(5); ok {
		t.Error("classification survived RemoveBatch")
	}
}

func TestDuplicateViewRegistrationIgnored(t *testing.T) {
	s := New()
	var first, second int
	s.RegisterView("view", ViewFuncs{OnDetection: func(radar.PointRecord) { first++ }})
	s.RegisterView("view", ViewFuncs{OnDetection: func(radar.PointRecord) { second++ }})

	s.ProcessDetection(det(100, 10))

	if first != 1 {
		t.Errorf("original registration fired %d times, want 1", first)
	}
	if second != 0 {
		t.Errorf("duplicate registration fired %d times, want 0", second)
	}

	s.UnregisterView("view")
	s.ProcessDetection(det(100, 10))
	if first != 1 {
		t.Errorf("unregistered view fired %d times, want 1", first)
	}
}

// A view callback may call straight back into the store. Notification runs
// outside the lock, so this must not deadlock.
func TestReentrantViewCallback(t *testing.T) {
	s := New()
	var seen int
	s.RegisterView("reentrant", ViewFuncs{
		OnDetection: func(radar.PointRecord) {
			seen = s.DetectionCount()
		},
	})
	s.ProcessDetection(det(100, 10))
	if seen != 1 {
		t.Errorf("DetectionCount from callback = %d, want 1", seen)
	}
}

func TestConcurrentIngestion(t *testing.T) {
	// Enough volume to overflow both eviction caps while writers race.
	const (
		writers = 8
		each    = 2000
	)
	s := New()
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				s.ProcessDetection(det(float32(i), 10))
				s.ProcessTrack(trk(uint16(w), float32(i), 10))
			}
		}(w)
	}
	wg.Wait()

	if got := s.DetectionCount(); got != radar.MaxDetections {
		t.Errorf("DetectionCount = %d, want %d", got, radar.MaxDetections)
	}
	// Each writer owns one batch and overruns its per-batch cap.
	if got := s.TrackCount(); got != writers*radar.MaxTrackPoints {
		t.Errorf("TrackCount = %d, want %d", got, writers*radar.MaxTrackPoints)
	}
	if got := len(s.BatchIDs()); got != writers {
		t.Errorf("BatchIDs = %d series, want %d", got, writers)
	}
}

func TestFIFOCompaction(t *testing.T) {
	var f fifo
	for i := 0; i < 100; i++ {
		f.push(det(float32(i), 10), 10)
	}
	if f.len() != 10 {
		t.Fatalf("len = %d, want 10", f.len())
	}
	// The backing array must not grow without bound under steady eviction.
	if cap(f.items) > 64 {
		t.Errorf("backing capacity = %d, expected compaction to bound it", cap(f.items))
	}
	var got []float32
	f.each(func(p radar.PointRecord) { got = append(got, p.Range) })
	for i, r := range got {
		if want := float32(90 + i); r != want {
			t.Errorf("record %d range = %v, want %v", i, r, want)
		}
	}
}
