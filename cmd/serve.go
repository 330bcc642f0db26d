package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valuehound/ruleone-cli/internal/batch"
	"github.com/valuehound/ruleone-cli/internal/screener"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screening HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Screener, env.Batch),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// lookupService is the slice of screener.Service the router needs.
type lookupService interface {
	Lookup(ctx context.Context, symbol string) (*screener.Report, error)
}

func newRouter(svc lookupService, orch *batch.Orchestrator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/companies/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		symbol := chi.URLParam(req, "symbol")

		rep, err := svc.Lookup(req.Context(), symbol)
		if err != nil {
			if eris.Is(err, screener.ErrNoData) {
				writeError(w, http.StatusNotFound, "no data for symbol")
				return
			}
			zap.L().Error("lookup failed", zap.String("symbol", symbol), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})

	r.Post("/api/batch", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Symbols []string `json:"symbols"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.Symbols) == 0 {
			writeError(w, http.StatusBadRequest, "symbols is required")
			return
		}

		// The job must outlive this request.
		id, err := orch.Start(context.Background(), body.Symbols)
		if err != nil {
			if eris.Is(err, batch.ErrBatchActive) {
				writeError(w, http.StatusConflict, "a batch job is already running")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
	})

	r.Get("/api/batch/{id}", func(w http.ResponseWriter, req *http.Request) {
		snap, err := orch.Snapshot(chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, snapshotResponse(snap))
	})

	r.Get("/api/batch/{id}/results", func(w http.ResponseWriter, req *http.Request) {
		results, err := orch.Results(chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	})

	r.Post("/api/batch/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
		if err := orch.Cancel(chi.URLParam(req, "id")); err != nil {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
	})

	return r
}

// snapshotResponse converts the ETA to whole seconds for API clients.
func snapshotResponse(snap batch.Snapshot) map[string]any {
	return map[string]any{
		"id":          snap.ID,
		"state":       snap.State,
		"total":       snap.Total,
		"processed":   snap.Processed,
		"succeeded":   snap.Succeeded,
		"failed":      snap.Failed,
		"current":     snap.Current,
		"started_at":  snap.StartedAt,
		"eta_seconds": int(snap.ETA.Seconds()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
