package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/geointel-engine/core"
	"github.com/signalsfoundry/geointel-engine/internal/api"
	"github.com/signalsfoundry/geointel-engine/internal/catalog"
	"github.com/signalsfoundry/geointel-engine/internal/logging"
	"github.com/signalsfoundry/geointel-engine/internal/observability"
	"github.com/signalsfoundry/geointel-engine/internal/stream"
	"github.com/signalsfoundry/geointel-engine/model"
)

func main() {
	httpAddr := flag.String("http-addr", ":8080", "TCP address the analytics HTTP API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	elementsPath := flag.String("elements", "configs/elements.json", "Path to a JSON file containing orbital elements (TLEs)")
	refresh := flag.Duration("track-refresh", 0, "Interval for pushing recomputed ground tracks to stream clients (0 disables)")
	trackWindow := flag.Duration("track-window", 90*time.Minute, "Ground-track window length for the refresh loop")
	trackStep := flag.Duration("track-step", 30*time.Second, "Ground-track sampling cadence for the refresh loop")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	collector, err := observability.NewAnalyticsCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	store := catalog.New(catalog.WithElementsRecorder(collector))
	loadElements(log, store, *elementsPath)

	engine := core.NewEngine(log, core.WithMetricsRecorder(collector))

	hub := stream.NewHub(log, stream.WithClientsRecorder(collector))
	go hub.Run()

	server := api.NewServer(engine, store, log,
		api.WithHub(hub),
		api.WithCollector(collector),
	)

	srv := &http.Server{
		Addr:    *httpAddr,
		Handler: server.Routes(),
	}

	log.Info(ctx, "starting analytics HTTP API", logging.String("addr", *httpAddr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *refresh > 0 {
		go refreshTracks(stopCtx, log, engine, store, hub, *refresh, *trackWindow, *trackStep)
	}

	<-stopCtx.Done()

	log.Info(ctx, "shutting down analytics server")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

// refreshTracks recomputes ground tracks for the catalogued elements on
// a fixed cadence and pushes them to connected map clients. Failures are
// reported per element and retried on the next cycle; there is no inner
// retry loop.
func refreshTracks(ctx context.Context, log logging.Logger, engine *core.Engine, store *catalog.Catalog, hub *stream.Hub, interval, window, step time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elements := store.ListElements()
			if len(elements) == 0 {
				continue
			}

			report, err := engine.GenerateTracks(ctx, elements, core.TimeWindow{
				Start: now.UTC(),
				End:   now.UTC().Add(window),
				Step:  step,
			})
			if err != nil {
				log.Warn(ctx, "track refresh failed", logging.String("error", err.Error()))
				continue
			}
			if len(report.Rejected) > 0 {
				log.Warn(ctx, "track refresh rejected elements",
					logging.Int("rejected", len(report.Rejected)),
					logging.String("detail", core.DescribeItemErrors(report.Rejected)),
				)
			}
			hub.BroadcastTracks(report)
		}
	}
}

func serveMetrics(addr string, collector *observability.AnalyticsCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func loadElements(log logging.Logger, store *catalog.Catalog, path string) {
	if path == "" || store == nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn(context.Background(), "skipping element load", logging.String("path", path), logging.String("error", err.Error()))
		return
	}

	var elements []model.OrbitalElement
	if err := json.Unmarshal(data, &elements); err != nil {
		log.Warn(context.Background(), "failed to parse orbital elements", logging.String("path", path), logging.String("error", err.Error()))
		return
	}

	added := 0
	for _, el := range elements {
		if err := store.AddElement(el); err == nil {
			added++
		} else {
			log.Warn(context.Background(), "skipping element", logging.String("id", el.ID), logging.String("error", err.Error()))
		}
	}

	log.Info(context.Background(), "loaded orbital elements",
		logging.String("path", path),
		logging.Int("count", added),
	)
}
