// Package radar defines the shared domain types for the telemetry core:
// decoded detection and track points, target classification codes, and the
// capacity limits applied by the in-memory store. The wire-level structs
// live in the protocol sub-package; the bounded buffers live in store.
package radar

import "math"

// PointKind discriminates the two record families carried by the telemetry
// stream: raw detections from the signal processor and data-association
// filtered track points from the data processor.
type PointKind uint8

const (
	Detection PointKind = 1
	Track     PointKind = 2
)

// Capacity limits for the in-memory buffers. The store evicts oldest-first
// when an append would exceed the hard limit, and the periodic cleanup pass
// trims down to the keep thresholds.
const (
	MaxDetections  = 10000 // hard cap on buffered detections
	KeepDetections = 5000  // detections retained after a cleanup pass

	MaxTrackPoints  = 1000 // hard cap per track batch
	KeepTrackPoints = 500  // track points per batch retained after cleanup
)

// PointRecord is a single decoded radar return or track point. Range is in
// meters, Azimuth in degrees [0,360), Elevation in degrees, Speed in m/s.
// BatchID and StatMethod are meaningful only when Kind == Track.
type PointRecord struct {
	Kind      PointKind
	Range     float32
	Azimuth   float32
	Elevation float32
	SNR       float32
	Speed     float32
	Altitude  float32
	Amplitude float32

	// Track-only fields. BatchID groups all points of one continuously
	// tracked target; StatMethod records how the point was produced
	// (0 filtered, 1 extrapolated, 2 drop marker).
	BatchID    uint16
	StatMethod uint8
}

// TargetClass is the classification result reported per track batch.
type TargetClass uint8

const (
	ClassUnknown    TargetClass = 0
	ClassDrone      TargetClass = 1
	ClassPedestrian TargetClass = 2
	ClassVehicle    TargetClass = 3
	ClassBird       TargetClass = 4
	ClassOther      TargetClass = 5
)

// Valid reports whether a decoded point is physically plausible. Points
// failing this check are dropped before ingestion rather than poisoning the
// buffers: NaN coordinates, negative or absurd range, out-of-band angles.
func (p PointRecord) Valid() bool {
	if isNaN32(p.Range) || isNaN32(p.Azimuth) || isNaN32(p.Elevation) {
		return false
	}
	if p.Range < 0 || p.Range > 1e6 {
		return false
	}
	if p.Azimuth < 0 || p.Azimuth >= 360 {
		return false
	}
	if p.Elevation < -90 || p.Elevation > 90 {
		return false
	}
	return true
}

func isNaN32(f float32) bool { return math.IsNaN(float64(f)) }

// NormalizeAngle maps an angle in degrees onto [0,360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// InSector reports whether azimuth (degrees) lies inside the sector
// [minAngle,maxAngle], inclusive on both bounds. All three angles are
// normalised onto [0,360) first. A sector whose normalised minimum exceeds
// its maximum wraps through 0°: membership is then angle >= min OR
// angle <= max.
func InSector(azimuth, minAngle, maxAngle float64) bool {
	a := NormalizeAngle(azimuth)
	lo := NormalizeAngle(minAngle)
	hi := NormalizeAngle(maxAngle)
	if lo <= hi {
		return a >= lo && a <= hi
	}
	return a >= lo || a <= hi
}
