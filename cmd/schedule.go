package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/queue"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
	"github.com/vibast-solutions/ms-go-mailings/app/scheduler"
	"github.com/vibast-solutions/ms-go-mailings/config"
)

var scheduleMetricsAddr string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Start the mailing scheduler",
	Long:  "Start the periodic scheduler that finishes expired mailings and publishes due occurrences to the dispatch stream.",
	Run:   runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleMetricsAddr, "metrics-addr", "", "optional address to serve /metrics on")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := newLogger(cfg)

	db, err := openDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	rdb, err := openRedis(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	m := metrics.New()
	serveMetrics(scheduleMetricsAddr, m, logger)

	planner := scheduler.NewPlanner(
		repository.NewMailingRepository(db),
		queue.NewDispatchProducer(rdb, cfg.ClaimTTL),
		m,
		logger.WithField("component", "planner"),
		cfg.SchedulerBatch,
		cfg.ClaimTTL,
	)

	s, err := scheduler.New(cfg.SchedulerInterval, planner.Tick, logger.WithField("component", "scheduler"))
	if err != nil {
		logger.Fatalf("Failed to build scheduler: %v", err)
	}
	s.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Received shutdown signal, stopping scheduler...")
	s.Stop()
}

// serveMetrics exposes /metrics on addr in the background when addr is set.
func serveMetrics(addr string, m *metrics.Metrics, logger logrus.FieldLogger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		logger.Infof("Serving metrics on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()
}
