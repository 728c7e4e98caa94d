// Package web serves receiver status, Prometheus metrics and a live
// websocket stream of decoded messages.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"gnssrx/internal/status"
)

// Deps are the handler's collaborators. Nil fields disable their routes.
type Deps struct {
	Status  *status.Store
	Hub     *Hub
	Logs    *LogBuffer
	Metrics http.Handler
}

func Handler(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if d.Status == nil {
			http.Error(w, "status unavailable", http.StatusNotFound)
			return
		}
		writeJSON(w, d.Status.Snapshot())
	})

	if d.Logs != nil {
		mux.Handle("/api/logs", d.Logs.Handler())
	}
	mux.Handle("/api/about", AboutHandler())
	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics)
	}
	if d.Hub != nil {
		mux.HandleFunc("/ws", handleWS(d.Hub))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>gnssrx</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>gnssrx</h1><p><a href=\"/api/status\">/api/status</a> <a href=\"/metrics\">/metrics</a> <a href=\"/api/logs?format=text\">/api/logs</a></p>")
		if d.Status != nil {
			snap := d.Status.Snapshot()
			_, _ = fmt.Fprintf(w, "<pre>source=%s up=%t\n", html.EscapeString(snap.Source), snap.SourceUp)
			if snap.Fix != nil {
				_, _ = fmt.Fprintf(w, "fix valid=%t lat=%.7f lon=%.7f alt=%.3f (%s)\n",
					snap.Fix.Valid, snap.Fix.Position.LatDeg, snap.Fix.Position.LonDeg, snap.Fix.Position.AltM, html.EscapeString(snap.Fix.Source),
				)
			}
			for _, e := range snap.Messages {
				_, _ = fmt.Fprintf(w, "%-6s %-8s %d\n", e.Protocol, html.EscapeString(e.Key), e.Count)
			}
			_, _ = fmt.Fprintf(w, "</pre>")
		}
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

// Serve runs the handler on listenAddr until ctx is done.
func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
