// pcap-replay feeds captured radar station traffic back into a running
// radarlinkd. It extracts UDP payloads from a capture file, optionally
// re-stamps the frame identity pair, and paces them at the original or a
// scaled rate. Requires building with -tags=pcap for capture support.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
)

var (
	pcapFile = flag.String("file", "", "Capture file to replay")
	target   = flag.String("target", "127.0.0.1:8006", "Destination host:port")
	port     = flag.Int("port", 0, "Only replay UDP packets with this destination port; 0 replays all UDP")
	speed    = flag.Float64("speed", 1.0, "Replay speed multiplier; 0 replays as fast as possible")
	restamp  = flag.Bool("restamp", false, "Recompute each frame's checksum after fixing identity fields")
	srcID    = flag.Uint("src", 0, "Rewrite frame source ID when nonzero (implies -restamp)")
	destID   = flag.Uint("dest", 0, "Rewrite frame destination ID when nonzero (implies -restamp)")
)

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("-file is required")
	}
	if *speed < 0 {
		log.Fatal("-speed must be non-negative")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := replayOptions{
		target:  *target,
		port:    *port,
		speed:   *speed,
		srcID:   uint16(*srcID),
		destID:  uint16(*destID),
		restamp: *restamp || *srcID != 0 || *destID != 0,
	}
	if err := replay(ctx, *pcapFile, opts); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
}

type replayOptions struct {
	target  string
	port    int
	speed   float64
	srcID   uint16
	destID  uint16
	restamp bool
}
