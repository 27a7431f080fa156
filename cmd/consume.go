package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/queue"
	"github.com/vibast-solutions/ms-go-mailings/config"
)

var consumeMetricsAddr string

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume queued messages",
	Long:  "Consume queued messages from Redis streams.",
}

// init registers consume subcommands.
func init() {
	consumeDispatchCmd.Flags().StringVar(&consumeMetricsAddr, "metrics-addr", "", "optional address to serve /metrics on")
	consumeCmd.AddCommand(consumeDispatchCmd)
	rootCmd.AddCommand(consumeCmd)
}

var consumeDispatchCmd = &cobra.Command{
	Use:   "dispatch [consumer_name]",
	Short: "Start a dispatch worker",
	Long:  "Start a worker that reads due occurrences from the Redis stream and delivers them to every recipient.",
	Args:  cobra.ExactArgs(1),
	Run:   runConsumeDispatch,
}

// runConsumeDispatch starts the dispatch queue consumer worker.
func runConsumeDispatch(_ *cobra.Command, args []string) {
	consumerName := args[0]

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
	serveMetrics(consumeMetricsAddr, m, logger)

	dispatcher, err := buildDispatchService(cfg, db, rdb, m, logger.WithField("consumer", consumerName))
	if err != nil {
		logger.Fatalf("Failed to build dispatcher: %v", err)
	}
	consumer := queue.NewDispatchConsumer(rdb, dispatcher, consumerName, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Received shutdown signal, stopping consumer...")
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil {
		logger.Fatalf("Consumer error: %v", err)
	}

	logger.Info("Consumer stopped")
}
