// radarlinkd is the station-side telemetry daemon: it binds the UDP links
// to the radar processing nodes, ingests detections and tracks into the
// in-memory store, and serves metrics and a status summary over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"

	"github.com/skyfence/radarlink/internal/config"
	"github.com/skyfence/radarlink/internal/monitoring"
	"github.com/skyfence/radarlink/internal/radar/link"
	"github.com/skyfence/radarlink/internal/radar/store"
	"github.com/skyfence/radarlink/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to network config file (JSON or YAML); defaults apply when empty")
	listen       = flag.String("listen", ":8090", "HTTP listen address for /metrics and /status")
	sendDefaults = flag.Bool("send-defaults", false, "Push the factory parameter set and system start on boot")

	photoHeartbeat = flag.Duration("photo-heartbeat", 0, "Photoelectric heartbeat interval; 0 disables the uplink")
	photoDevice    = flag.Uint("photo-device", 1, "Photoelectric device number")
	photoEndDevice = flag.Uint("photo-end-device", 1, "Photoelectric end-device number")
)

func main() {
	flag.Parse()
	log.Printf("radarlinkd %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	provider := config.Defaults()
	if *configPath != "" {
		var err error
		provider, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	eps := link.EndpointsFrom(provider)

	st := store.New()
	links := link.New(eps, st)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st.StartCleanup(ctx)
	if err := links.Start(ctx); err != nil {
		// Failed links keep retrying on their own; log and carry on.
		monitoring.Logf("some links failed to bind: %v", err)
	}
	defer links.Close()

	if *sendDefaults {
		if err := links.SendDefaultParams(); err != nil {
			monitoring.Logf("failed to push default params: %v", err)
		}
	}
	if *photoHeartbeat > 0 {
		links.StartPhotoHeartbeat(ctx, *photoHeartbeat, uint32(*photoDevice), uint32(*photoEndDevice))
	}

	var wg sync.WaitGroup

	// Drain status events into the log; telemetry flows into the store on
	// the receive goroutines.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range links.Events() {
			monitoring.Logf("event on %s: %+v", ev.Link, ev.Record)
		}
	}()

	viewID := uuid.NewString()
	st.RegisterView(viewID, store.ViewFuncs{
		OnClear: func() { monitoring.Logf("store cleared") },
	})
	defer st.UnregisterView(viewID)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		statuses := links.Status()
		out := struct {
			Version    string            `json:"version"`
			Links      map[string]string `json:"links"`
			Detections int               `json:"detections"`
			Tracks     int               `json:"tracks"`
			Batches    []uint16          `json:"batches"`
		}{
			Version:    version.Version,
			Links:      make(map[string]string, len(statuses)),
			Detections: st.DetectionCount(),
			Tracks:     st.TrackCount(),
			Batches:    st.BatchIDs(),
		}
		for name, s := range statuses {
			out.Links[name] = s.String()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	server := &http.Server{Addr: *listen, Handler: mux}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("serving metrics and status on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	links.Close()
	wg.Wait()
}
