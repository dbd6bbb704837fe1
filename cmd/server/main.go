package main

import (
	"fmt"
	"log"
	"net/http"

	"networth-tracker/internal/config"
	"networth-tracker/internal/engine"
	"networth-tracker/internal/handlers"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	e, err := engine.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer e.Close()

	h := handlers.New(e, cfg.SecureCookie)
	mux := setupRouter(h)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("listening on %s (database %s)", addr, cfg.DatabasePath)
	return http.ListenAndServe(addr, mux)
}

func setupRouter(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return mux
}
