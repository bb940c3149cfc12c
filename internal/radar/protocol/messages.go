package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/VictoriaMetrics/metrics"

	"github.com/skyfence/radarlink/internal/radar"
)

// Message identifiers. 0xAAxx/0xCCxx/0xDF01/0xDA01 travel from the display
// station to the processors; the rest travel back.
const (
	MsgBatteryControl   = 0xAA01
	MsgTransceiverCtl   = 0xAA02
	MsgPatternScan      = 0xAA03
	MsgScanRange        = 0xAA04
	MsgBeamControl      = 0xAA05
	MsgSignalProcParams = 0xAA06
	MsgDataProcParams   = 0xAA07

	MsgDataSave      = 0xCC01
	MsgDataDelete    = 0xCC02
	MsgOfflineToggle = 0xCC03
	MsgManualTrack   = 0xDF01
	MsgSystemStart   = 0xDA01

	MsgDetectionBatch   = 0xDD01
	MsgSaveAck          = 0xDD02
	MsgDeleteAck        = 0xDD03
	MsgOfflineStatus    = 0xDD04
	MsgTrackBatch       = 0xEE01
	MsgClassification   = 0xDB01
	MsgMonitorStatus    = 0xCF01
	MsgMonitorStatusAlt = 0xDC01
)

// Payload decode errors.
var (
	ErrUnknownMessage  = errors.New("protocol: unknown message ID")
	ErrPayloadTooShort = errors.New("protocol: payload too short")
)

// Wire sizes of the repeated batch entries.
const (
	DetEntrySize   = 56
	TrackEntrySize = 61

	// detection batch body: status block + radarID + u16 count
	detBatchHeadSize = SigStatusSize + 1 + 2
)

var (
	unknownMessages = metrics.NewCounter("radarlink_protocol_unknown_messages_total")
	shortPayloads   = metrics.NewCounter("radarlink_protocol_short_payloads_total")
)

// Record is any decoded inbound message.
type Record interface {
	MessageID() uint16
}

// DetectionBatch is one 0xDD01 message: a status block followed by the
// detections produced during that coherent processing interval.
type DetectionBatch struct {
	Status  SigStatus
	RadarID uint8
	Points  []radar.PointRecord
}

func (DetectionBatch) MessageID() uint16 { return MsgDetectionBatch }

// TrackBatch is one 0xEE01 message carrying track points, each tagged with
// the batch number of its target.
type TrackBatch struct {
	Points []radar.PointRecord
}

func (TrackBatch) MessageID() uint16 { return MsgTrackBatch }

// SaveAck acknowledges a data-save command.
type SaveAck struct {
	DataID uint8
	Size   uint16
}

func (SaveAck) MessageID() uint16 { return MsgSaveAck }

// DeleteAck acknowledges a data-delete command.
type DeleteAck struct {
	DataID uint8
}

func (DeleteAck) MessageID() uint16 { return MsgDeleteAck }

// OfflineStatus reports the offline-replay state of a stored data set.
type OfflineStatus struct {
	State  uint8 // 0 normal, 1 offline
	DataID uint8
}

func (OfflineStatus) MessageID() uint16 { return MsgOfflineStatus }

// Classification is the recognizer's verdict for one track batch.
type Classification struct {
	BatchID uint16
	Class   radar.TargetClass
}

func (Classification) MessageID() uint16 { return MsgClassification }

// MonitorStatus reports subsystem health from the monitor node.
type MonitorStatus struct {
	DataProc uint8 // 0 ok, 1 faulted
	BeamCtl  uint8
	SigProc  uint8
}

func (MonitorStatus) MessageID() uint16 { return MsgMonitorStatus }

// DecodeFunc turns a message body (bytes after the msgID) into a Record.
type DecodeFunc func(payload []byte) (Record, error)

type registryEntry struct {
	minLen int
	decode DecodeFunc
}

// Registry maps message IDs onto payload decoders. The zero value is not
// usable; construct with NewRegistry, which installs the standard message
// set. Registries are safe for concurrent Decode calls once built.
type Registry struct {
	entries map[uint16]registryEntry
}

// NewRegistry returns a registry holding decoders for every inbound message
// the telemetry core understands.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[uint16]registryEntry)}
	r.register(MsgDetectionBatch, detBatchHeadSize, decodeDetectionBatch)
	r.register(MsgTrackBatch, 2, decodeTrackBatch)
	r.register(MsgSaveAck, 3, decodeSaveAck)
	r.register(MsgDeleteAck, 1, decodeDeleteAck)
	r.register(MsgOfflineStatus, 2, decodeOfflineStatus)
	r.register(MsgClassification, 3, decodeClassification)
	r.register(MsgMonitorStatus, 3, decodeMonitorStatus)
	r.register(MsgMonitorStatusAlt, 3, decodeMonitorStatus)
	return r
}

func (r *Registry) register(msgID uint16, minLen int, fn DecodeFunc) {
	r.entries[msgID] = registryEntry{minLen: minLen, decode: fn}
}

// Known reports whether the registry holds a decoder for msgID.
func (r *Registry) Known(msgID uint16) bool {
	_, ok := r.entries[msgID]
	return ok
}

// Decode dispatches payload to the decoder registered for msgID. Unknown
// IDs and undersized payloads are counted and return an error; they are
// never fatal to the caller's receive loop.
func (r *Registry) Decode(msgID uint16, payload []byte) (Record, error) {
	e, ok := r.entries[msgID]
	if !ok {
		unknownMessages.Inc()
		return nil, fmt.Errorf("%w: 0x%04X", ErrUnknownMessage, msgID)
	}
	if len(payload) < e.minLen {
		shortPayloads.Inc()
		return nil, fmt.Errorf("%w: msg 0x%04X needs %d bytes, got %d", ErrPayloadTooShort, msgID, e.minLen, len(payload))
	}
	return e.decode(payload)
}

func f32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

func appendF32(buf []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
}

func decodeDetectionBatch(payload []byte) (Record, error) {
	status, err := decodeSigStatus(payload)
	if err != nil {
		return nil, err
	}
	radarID := payload[SigStatusSize]
	count := int(binary.LittleEndian.Uint16(payload[SigStatusSize+1 : SigStatusSize+3]))

	body := payload[detBatchHeadSize:]
	if len(body) < count*DetEntrySize {
		shortPayloads.Inc()
		return nil, fmt.Errorf("%w: detection batch claims %d entries, body holds %d bytes", ErrPayloadTooShort, count, len(body))
	}

	batch := DetectionBatch{
		Status:  status,
		RadarID: radarID,
		Points:  make([]radar.PointRecord, 0, count),
	}
	for i := 0; i < count; i++ {
		e := body[i*DetEntrySize : (i+1)*DetEntrySize]
		batch.Points = append(batch.Points, radar.PointRecord{
			Kind:      radar.Detection,
			Range:     f32(e[0:4]),
			Speed:     f32(e[4:8]),
			Azimuth:   f32(e[8:12]),
			Elevation: f32(e[12:16]),
			Altitude:  f32(e[16:20]),
			Amplitude: f32(e[20:24]),
			SNR:       f32(e[24:28]), // CFAR SNR; statistical SNR at e[28:32] is unused here
		})
	}
	return batch, nil
}

func decodeTrackBatch(payload []byte) (Record, error) {
	count := int(binary.LittleEndian.Uint16(payload[0:2]))
	body := payload[2:]
	if len(body) < count*TrackEntrySize {
		shortPayloads.Inc()
		return nil, fmt.Errorf("%w: track batch claims %d entries, body holds %d bytes", ErrPayloadTooShort, count, len(body))
	}

	batch := TrackBatch{Points: make([]radar.PointRecord, 0, count)}
	for i := 0; i < count; i++ {
		e := body[i*TrackEntrySize : (i+1)*TrackEntrySize]
		batch.Points = append(batch.Points, radar.PointRecord{
			Kind:       radar.Track,
			BatchID:    binary.LittleEndian.Uint16(e[0:2]),
			StatMethod: e[12],
			Amplitude:  f32(e[13:17]),
			SNR:        f32(e[17:21]),
			Range:      f32(e[21:25]),
			Azimuth:    f32(e[25:29]),
			Elevation:  f32(e[29:33]),
			Altitude:   f32(e[33:37]),
			Speed:      f32(e[37:41]),
		})
	}
	return batch, nil
}

func decodeSaveAck(payload []byte) (Record, error) {
	return SaveAck{
		DataID: payload[0],
		Size:   binary.LittleEndian.Uint16(payload[1:3]),
	}, nil
}

func decodeDeleteAck(payload []byte) (Record, error) {
	return DeleteAck{DataID: payload[0]}, nil
}

func decodeOfflineStatus(payload []byte) (Record, error) {
	return OfflineStatus{State: payload[0], DataID: payload[1]}, nil
}

func decodeClassification(payload []byte) (Record, error) {
	return Classification{
		BatchID: binary.LittleEndian.Uint16(payload[0:2]),
		Class:   radar.TargetClass(payload[2]),
	}, nil
}

func decodeMonitorStatus(payload []byte) (Record, error) {
	return MonitorStatus{DataProc: payload[0], BeamCtl: payload[1], SigProc: payload[2]}, nil
}
