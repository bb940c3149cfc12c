//go:build !pcap
// +build !pcap

package main

import (
	"context"
	"fmt"
)

// replay is a stub when capture support is disabled. Build with -tags=pcap
// to enable reading capture files.
func replay(ctx context.Context, file string, opts replayOptions) error {
	return fmt.Errorf("capture support not enabled: rebuild with -tags=pcap")
}
