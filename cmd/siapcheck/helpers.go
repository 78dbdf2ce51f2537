package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"siapcheck/internal/engine"
	"siapcheck/internal/format"
	"siapcheck/internal/logging"
	"siapcheck/internal/metrics"
	"siapcheck/internal/store"
	"siapcheck/internal/wiring"
)

const outputJSON = "json"

// outputMode maps --output to a table mode. JSON is handled by callers.
func outputMode() (format.Mode, error) {
	return format.ParseMode(rootFlags.output)
}

func jsonOutput() bool { return rootFlags.output == outputJSON }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newEvaluator builds the evaluator from cfg. Traversal events are logged
// and, when m is set, counted.
func newEvaluator(m *metrics.Metrics) (*wiring.Evaluator, error) {
	obs := engine.MultiObserver{&engine.LogObserver{Logger: logging.New("engine")}}
	if m != nil {
		obs = append(obs, m)
	}
	return wiring.FromConfig(cfg, obs)
}

// openStore returns nil when persistence is not configured.
func openStore() (store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := wiring.OpenStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// serveMetrics exposes m on addr until the returned stop func is called.
// An empty addr disables the endpoint.
func serveMetrics(addr string, m *metrics.Metrics) (stop func()) {
	if addr == "" {
		return func() {}
	}
	logger := logging.New("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint stopped", "error", err)
		}
	}()
	return func() { _ = srv.Close() }
}
