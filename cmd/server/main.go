package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/voltmap/voltmap/internal/config"
	"github.com/voltmap/voltmap/internal/editor"
	"github.com/voltmap/voltmap/internal/export"
	mw "github.com/voltmap/voltmap/internal/middleware"
	"github.com/voltmap/voltmap/internal/session"
	"github.com/voltmap/voltmap/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	st := store.NewClient(cfg.QueryURL, cfg.UpdateURL, cfg.CommitTimeout)

	hub := session.NewHub()
	go hub.Run()

	exportHandler := export.NewHandler(st)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Diagram listing
	r.HandleFunc("/api/diagrams", func(w http.ResponseWriter, r *http.Request) {
		infos, err := st.ListDiagrams(r.Context())
		if err != nil {
			slog.Error("list diagrams", "error", err)
			http.Error(w, "failed to list diagrams", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(infos)
	}).Methods("GET")

	// PNG export
	r.HandleFunc("/export/png", exportHandler.ExportPNG).Methods("GET")

	// WebSocket endpoint: one connection = one editing session
	r.HandleFunc("/ws/diagram/{diagramId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, st, cfg)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "query", cfg.QueryURL, "update", cfg.UpdateURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, st *store.Client, cfg *config.Config) {
	vars := mux.Vars(r)
	diagramID := vars["diagramId"]
	if diagramID == "" {
		http.Error(w, "missing diagram id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:5173", "localhost:3000"},
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	sessionID := uuid.New().String()

	ed := editor.New(st, diagramID, editor.Options{
		GridSize:      cfg.GridSize,
		HitThreshold:  cfg.HitThreshold,
		DragThreshold: cfg.DragThreshold,
		HoverDebounce: cfg.HoverDebounce,
		CommitTimeout: cfg.CommitTimeout,
	})
	sess := session.New(hub, conn, ed, sessionID, diagramID)
	onFrame, onStatus, onTooltip := sess.Callbacks()
	ed.SetCallbacks(onFrame, onStatus, onTooltip)

	hub.Register(sess)

	ctx := r.Context()
	go sess.WritePump(ctx)
	go sess.Run(ctx)
	sess.ReadPump(ctx)
}
