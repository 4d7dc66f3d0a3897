package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luofan/yupen/internal/api"
	"github.com/luofan/yupen/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the cron schedule",
	Long: `Starts the HTTP API and the internal scheduler.

Endpoints:
  GET  /healthz        - liveness probe
  GET  /pool/latest    - newest pool snapshot
  GET  /crawl/status   - per-symbol crawl records
  POST /cron/daily     - trigger the daily crawl (X-Cron-Secret)
  POST /cron/pool      - trigger pool generation (X-Cron-Secret)
  POST /cron/ipo       - trigger the IPO push (X-Cron-Secret)
  POST /cron/cleanup   - trigger the retention sweep (X-Cron-Secret)`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, log, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.Config.Port = servePort
	}

	sched := scheduler.New(log)
	if err := scheduler.RegisterAll(sched, a, nil, log); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	handler := api.NewHandler(a, a.Snapshot, a.Tracker, a.Config.CronSecret, log)
	router := api.NewRouter(handler, log)
	server := api.New(a.Config, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()
	log.WithField("port", a.Config.Port).Info("Yupen serving")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
