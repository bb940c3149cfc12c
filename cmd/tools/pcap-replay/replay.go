//go:build pcap
// +build pcap

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/skyfence/radarlink/internal/radar/protocol"
)

// replay streams the capture's UDP payloads to opts.target, pacing by the
// original capture timestamps scaled by opts.speed.
func replay(ctx context.Context, file string, opts replayOptions) error {
	handle, err := pcap.OpenOffline(file)
	if err != nil {
		return fmt.Errorf("failed to open capture %s: %w", file, err)
	}
	defer handle.Close()

	filter := "udp"
	if opts.port != 0 {
		filter = fmt.Sprintf("udp dst port %d", opts.port)
	}
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
	}

	conn, err := net.Dial("udp", opts.target)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", opts.target, err)
	}
	defer conn.Close()

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	var (
		sent      int
		restamped int
		lastTS    time.Time
	)
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Printf("replay interrupted after %d packets", sent)
			return ctx.Err()
		case packet := <-source.Packets():
			if packet == nil {
				log.Printf("replay complete: %d packets in %v (%d restamped)", sent, time.Since(start), restamped)
				return nil
			}
			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			payload := udpLayer.(*layers.UDP).Payload
			if len(payload) == 0 {
				continue
			}

			// Pace against the capture clock.
			ts := packet.Metadata().Timestamp
			if opts.speed > 0 && !lastTS.IsZero() {
				gap := time.Duration(float64(ts.Sub(lastTS)) / opts.speed)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(gap):
				}
			}
			lastTS = ts

			out := payload
			if opts.restamp {
				if fixed, ok := restamp(payload, opts.srcID, opts.destID); ok {
					out = fixed
					restamped++
				}
			}
			if _, err := conn.Write(out); err != nil {
				return fmt.Errorf("send failed after %d packets: %w", sent, err)
			}
			sent++
		}
	}
}

// restamp rewrites the identity pair of a radar frame and recomputes its
// checksum. Non-frame payloads pass through untouched.
func restamp(datagram []byte, srcID, destID uint16) ([]byte, bool) {
	frame, err := protocol.Decode(datagram)
	if err != nil {
		return nil, false
	}
	if srcID == 0 {
		srcID = frame.SrcID
	}
	if destID == 0 {
		destID = frame.DestID
	}

	out := append([]byte(nil), datagram...)
	binary.LittleEndian.PutUint16(out[4:6], srcID)
	binary.LittleEndian.PutUint16(out[6:8], destID)
	dataLen := len(out) - protocol.TrailerSize
	out[dataLen] = protocol.ChecksumXOR(out[:dataLen])
	return out, true
}
