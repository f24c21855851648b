package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gridsync-logstream/internal/domain"
	"gridsync-logstream/internal/infrastructure/config"
	obs "gridsync-logstream/internal/infrastructure/observability"
	"gridsync-logstream/internal/usecase"
)

// NodeURLSetter replaces the node's base address at runtime.
type NodeURLSetter interface {
	usecase.NodeURLSource
	SetNodeURL(u string)
}

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Stream  *usecase.Controller
	// Node is nil when the address comes from a node directory.
	Node    NodeURLSetter
	Monitor *MonitorHub
}

func NewRouterWithDeps(d *Deps) http.Handler {
	return withCORS(d.Cfg, buildBaseMux(d))
}

func buildBaseMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	// ready only while the stream is connected
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if st := d.Stream.State(); st != domain.StateConnected {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(st))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, obs.BuildInfo())
	})

	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/stream/start", d.handleStart)
	mux.HandleFunc("/api/stream/stop", d.handleStop)
	mux.HandleFunc("/api/records", d.handleRecords)
	mux.HandleFunc("/api/records/export", d.handleExport)
	mux.HandleFunc("/api/node", d.handleNode)
	mux.HandleFunc("/api/monitor/ws", d.Monitor.HandleWS)

	return mux
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.Server.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
