package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/nurbekov/csvtodo/internal/config"
	"github.com/nurbekov/csvtodo/internal/reminder"
	"github.com/nurbekov/csvtodo/internal/store"
)

func main() {

	// Load configuration
	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	// Open the CSV record store FIRST
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	slog.Info("store opened", "dir", cfg.DataDir)

	if cfg.ReminderCron != "" {
		stop, err := reminder.Run(st, cfg.ReminderCron)
		if err != nil {
			log.Fatalf("Invalid REMINDER_CRON %q: %v", cfg.ReminderCron, err)
		}
		defer stop()
		slog.Info("reminder job scheduled", "cron", cfg.ReminderCron)
	}

	r := newRouter(st, cfg)

	// Start server LAST
	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting server with TLS", "addr", addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		slog.Info("starting server", "addr", addr)
		err = http.ListenAndServe(addr, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// setupLogger configures slog as the process-wide logger, text or JSON per config.
func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
