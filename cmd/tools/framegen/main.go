// framegen emits synthetic radar telemetry frames over UDP: detection
// batches shaped like the signal processor's output and track batches
// shaped like the data processor's. Useful for exercising a running
// radarlinkd without radar hardware.
package main

import (
	"encoding/binary"
	"flag"
	"log"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/skyfence/radarlink/internal/radar/link"
	"github.com/skyfence/radarlink/internal/radar/protocol"
)

var (
	target  = flag.String("target", "127.0.0.1:8006", "Destination host:port")
	kind    = flag.String("kind", "track", "Frame kind to generate: det or track")
	count   = flag.Int("count", 100, "Number of frames to send; 0 runs until interrupted")
	rate    = flag.Float64("rate", 10, "Frames per second")
	targets = flag.Int("targets", 3, "Simulated targets per frame")
	srcID   = flag.Uint("src", link.DefaultDataProID, "Source node ID stamped on frames")
	destID  = flag.Uint("dest", link.DefaultDispCtrlID, "Destination node ID stamped on frames")
	seed    = flag.Int64("seed", 1, "PRNG seed for target motion")
)

// simTarget is one synthetic mover on a constant-velocity arc.
type simTarget struct {
	batch   uint16
	rng     float32
	azi     float32
	ele     float32
	vel     float32
	aziRate float32
}

func newTargets(r *rand.Rand, n int) []simTarget {
	out := make([]simTarget, n)
	for i := range out {
		out[i] = simTarget{
			batch:   uint16(i + 1),
			rng:     500 + r.Float32()*3000,
			azi:     r.Float32() * 360,
			ele:     r.Float32() * 20,
			vel:     -30 + r.Float32()*60,
			aziRate: -2 + r.Float32()*4,
		}
	}
	return out
}

func (s *simTarget) step(dt float32) {
	s.rng += s.vel * dt
	if s.rng < 100 {
		s.rng = 100
		s.vel = -s.vel
	}
	s.azi = float32(math.Mod(float64(s.azi+s.aziRate*dt)+360, 360))
}

func appendF32(buf []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
}

func detPayload(targets []simTarget, r *rand.Rand) []byte {
	payload := binary.LittleEndian.AppendUint16(nil, protocol.MsgDetectionBatch)
	payload = append(payload, make([]byte, protocol.SigStatusSize)...)
	payload = append(payload, 1)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(targets)))
	for _, tg := range targets {
		e := appendF32(nil, tg.rng)
		e = appendF32(e, tg.vel)
		e = appendF32(e, tg.azi)
		e = appendF32(e, tg.ele)
		e = appendF32(e, tg.rng*float32(math.Tan(float64(tg.ele)*math.Pi/180)))
		e = appendF32(e, 400+r.Float32()*600) // amplitude
		e = appendF32(e, 8+r.Float32()*10)    // CFAR SNR
		e = appendF32(e, 8+r.Float32()*10)    // statistical SNR
		e = append(e, make([]byte, protocol.DetEntrySize-len(e))...)
		payload = append(payload, e...)
	}
	return payload
}

func trackPayload(targets []simTarget, r *rand.Rand) []byte {
	payload := binary.LittleEndian.AppendUint16(nil, protocol.MsgTrackBatch)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(len(targets)))
	now := time.Now()
	for _, tg := range targets {
		e := binary.LittleEndian.AppendUint16(nil, tg.batch)
		e = binary.LittleEndian.AppendUint16(e, 0) // cpi id
		e = binary.LittleEndian.AppendUint32(e, uint32(now.Unix()))
		e = binary.LittleEndian.AppendUint32(e, uint32(now.Nanosecond()))
		e = append(e, 0) // filtered point
		e = appendF32(e, 400+r.Float32()*600)
		e = appendF32(e, 8+r.Float32()*10)
		e = appendF32(e, tg.rng)
		e = appendF32(e, tg.azi)
		e = appendF32(e, tg.ele)
		e = appendF32(e, tg.rng*float32(math.Tan(float64(tg.ele)*math.Pi/180)))
		e = appendF32(e, tg.vel)
		e = append(e, make([]byte, protocol.TrackEntrySize-len(e))...)
		payload = append(payload, e...)
	}
	return payload
}

func main() {
	flag.Parse()
	if *kind != "det" && *kind != "track" {
		log.Fatalf("unknown -kind %q: want det or track", *kind)
	}
	if *rate <= 0 {
		log.Fatal("-rate must be positive")
	}

	conn, err := net.Dial("udp", *target)
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *target, err)
	}
	defer conn.Close()

	r := rand.New(rand.NewSource(*seed))
	movers := newTargets(r, *targets)
	interval := time.Duration(float64(time.Second) / *rate)
	dt := float32(interval.Seconds())

	log.Printf("sending %s frames to %s at %.1f Hz (%d targets)", *kind, *target, *rate, *targets)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var commCount uint32
	for sent := 0; *count == 0 || sent < *count; sent++ {
		<-ticker.C
		for i := range movers {
			movers[i].step(dt)
		}

		var payload []byte
		if *kind == "det" {
			payload = detPayload(movers, r)
		} else {
			payload = trackPayload(movers, r)
		}
		commCount++
		frame, err := protocol.Encode(payload, uint16(*srcID), uint16(*destID), commCount)
		if err != nil {
			log.Fatalf("encode: %v", err)
		}
		if _, err := conn.Write(frame); err != nil {
			log.Fatalf("send: %v", err)
		}
	}
	log.Printf("done: %d frames sent", *count)
}
