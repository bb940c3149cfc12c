// Package link assembles the station's UDP endpoints into one unit: it owns
// a transport per peer stream, decodes accepted frames through the message
// registry, routes telemetry into the store, and exposes the outbound
// command surface toward the signal processor, data processor, monitor and
// photoelectric turret.
package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/skyfence/radarlink/internal/monitoring"
	"github.com/skyfence/radarlink/internal/radar/protocol"
	"github.com/skyfence/radarlink/internal/radar/store"
	"github.com/skyfence/radarlink/internal/radar/transport"
)

// Link names, used in logs, metrics and events.
const (
	LinkSignal  = "signal"
	LinkSignal2 = "signal2"
	LinkData    = "data"
	LinkTarget  = "target"
	LinkMonitor = "monitor"
	LinkPhoto   = "photo"
)

// ErrNoRoute is returned for an outbound message whose ID maps to no peer.
var ErrNoRoute = errors.New("link: no route for message")

// eventBuffer bounds the status event channel. Events beyond it are
// dropped, never blocking the receive loops.
const eventBuffer = 64

var (
	eventsDropped = metrics.NewCounter("radarlink_events_dropped_total")
	badMessages   = metrics.NewCounter("radarlink_undecodable_messages_total")
)

// Event is one decoded status or acknowledgement record, tagged with the
// link it arrived on. High-rate telemetry (detection and track batches)
// goes to the store instead and is not published here.
type Event struct {
	Link   string
	Record protocol.Record
}

// Links is the full set of station endpoints. Construct with New, then
// Start; Close tears every transport down.
type Links struct {
	eps Endpoints
	st  *store.Store
	reg *protocol.Registry

	events    chan Event
	closeOnce sync.Once

	signal1 *transport.Transport
	signal2 *transport.Transport
	data    *transport.Transport
	target  *transport.Transport
	monitor *transport.Transport
	photo   *transport.Transport

	all []*transport.Transport
}

// New wires the endpoint plan to a store. Nothing is bound until Start.
func New(eps Endpoints, st *store.Store) *Links {
	l := &Links{
		eps:    eps,
		st:     st,
		reg:    protocol.NewRegistry(),
		events: make(chan Event, eventBuffer),
	}

	l.signal1 = l.newLink(LinkSignal, eps.SigRecvPort1, eps.SigProID)
	l.signal2 = l.newLink(LinkSignal2, eps.SigRecvPort2, eps.SigProID)
	l.data = l.newLink(LinkData, eps.DataRecvPort, eps.DataProID)
	l.target = l.newLink(LinkTarget, eps.TargetRecvPort, eps.TarClaID)
	l.monitor = l.newLink(LinkMonitor, eps.MonitorRecvPort, eps.MonitorID)

	// The turret speaks its own framing, not the radar envelope; this
	// endpoint is used send-only through SendRaw.
	l.photo = transport.New(transport.Config{
		Name:       LinkPhoto,
		ListenAddr: fmt.Sprintf(":%d", eps.PhotoRecvPort),
	})

	l.all = []*transport.Transport{l.signal1, l.signal2, l.data, l.target, l.monitor, l.photo}
	return l
}

func (l *Links) newLink(name string, port int, remoteID uint16) *transport.Transport {
	return transport.New(transport.Config{
		Name:       name,
		ListenAddr: fmt.Sprintf(":%d", port),
		LocalID:    l.eps.StationID,
		RemoteID:   remoteID,
		Handler: func(frame protocol.Frame, sender *net.UDPAddr) {
			l.handleFrame(name, frame)
		},
	})
}

// Start binds every endpoint. Bind failures do not abort the rest: each
// failed transport keeps retrying on its own, and the joined errors are
// returned so the caller can log them.
func (l *Links) Start(ctx context.Context) error {
	var errs []error
	for _, t := range l.all {
		if err := t.Start(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close shuts every endpoint down and closes the event channel. Safe to
// call more than once.
func (l *Links) Close() error {
	var errs []error
	l.closeOnce.Do(func() {
		for _, t := range l.all {
			if err := t.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		close(l.events)
	})
	return errors.Join(errs...)
}

// Events is the stream of decoded status and acknowledgement records.
// Consumed slowly, it drops rather than stalling reception.
func (l *Links) Events() <-chan Event {
	return l.events
}

// Status reports the lifecycle state of every link by name.
func (l *Links) Status() map[string]transport.Status {
	return map[string]transport.Status{
		LinkSignal:  l.signal1.Status(),
		LinkSignal2: l.signal2.Status(),
		LinkData:    l.data.Status(),
		LinkTarget:  l.target.Status(),
		LinkMonitor: l.monitor.Status(),
		LinkPhoto:   l.photo.Status(),
	}
}

// handleFrame runs on a transport receive goroutine: decode the message,
// feed telemetry to the store, publish everything else as an event.
func (l *Links) handleFrame(name string, frame protocol.Frame) {
	rec, err := l.reg.Decode(frame.MsgID, frame.Payload)
	if err != nil {
		badMessages.Inc()
		monitoring.Logf("link %s: undecodable message: %v", name, err)
		return
	}

	switch r := rec.(type) {
	case protocol.DetectionBatch:
		for _, p := range r.Points {
			l.st.ProcessDetection(p)
		}
	case protocol.TrackBatch:
		for _, p := range r.Points {
			l.st.ProcessTrack(p)
		}
	case protocol.Classification:
		l.st.SetBatchClass(r.BatchID, r.Class)
		l.publish(name, rec)
	default:
		l.publish(name, rec)
	}
}

func (l *Links) publish(name string, rec protocol.Record) {
	select {
	case l.events <- Event{Link: name, Record: rec}:
	default:
		eventsDropped.Inc()
	}
}

// SendControl frames an outbound command and routes it to the subsystem
// its message ID belongs to: radar front-end and signal processing
// commands to the signal processor, data handling commands to the data
// processor, system start to the monitor.
func (l *Links) SendControl(m protocol.Encoder) error {
	payload := protocol.EncodeMessage(m)
	switch m.MessageID() {
	case protocol.MsgBatteryControl, protocol.MsgTransceiverCtl, protocol.MsgPatternScan,
		protocol.MsgScanRange, protocol.MsgBeamControl, protocol.MsgSignalProcParams:
		return l.signal1.Send(payload, l.eps.SigProIP, l.eps.SigSendPort)
	case protocol.MsgDataProcParams, protocol.MsgDataSave, protocol.MsgDataDelete,
		protocol.MsgOfflineToggle, protocol.MsgManualTrack:
		return l.data.Send(payload, l.eps.DataProIP, l.eps.DataSendPort)
	case protocol.MsgSystemStart:
		return l.monitor.Send(payload, l.eps.MonitorIP, l.eps.MonitorSendPort)
	default:
		return fmt.Errorf("%w: 0x%04X", ErrNoRoute, m.MessageID())
	}
}

// SendDefaultParams pushes the full factory parameter set to the
// processors, the same sequence the station issues after power-on.
func (l *Links) SendDefaultParams() error {
	msgs := []protocol.Encoder{
		protocol.DefaultBatteryControl(),
		protocol.DefaultTransceiverControl(),
		protocol.DefaultPatternScan(),
		protocol.DefaultScanRange(),
		protocol.DefaultBeamControl(),
		protocol.DefaultSignalProcParams(),
		protocol.DefaultDataProcParams(),
	}
	var errs []error
	for _, m := range msgs {
		if err := l.SendControl(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// photoFrame is anything encodable in the turret's framing.
type photoFrame interface {
	Encode() []byte
}

// SendPhoto writes one turret frame (heartbeat or guidance cue).
func (l *Links) SendPhoto(m photoFrame) error {
	return l.photo.SendRaw(m.Encode(), l.eps.PhotoIP, l.eps.PhotoSendPort)
}

// StartPhotoHeartbeat keeps the turret link alive, sending a heartbeat
// every interval until ctx is cancelled.
func (l *Links) StartPhotoHeartbeat(ctx context.Context, interval time.Duration, deviceNum, endDeviceNum uint32) {
	hb := protocol.PhotoHeartbeat{DeviceNum: deviceNum, EndDeviceNum: endDeviceNum}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.SendPhoto(hb); err != nil {
					monitoring.Logf("link %s: heartbeat failed: %v", LinkPhoto, err)
				}
			}
		}
	}()
}
