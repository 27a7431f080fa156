package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/vibast-solutions/ms-go-mailings/app/controller"
	grpcserver "github.com/vibast-solutions/ms-go-mailings/app/grpc"
	"github.com/vibast-solutions/ms-go-mailings/app/metrics"
	"github.com/vibast-solutions/ms-go-mailings/app/repository"
	"github.com/vibast-solutions/ms-go-mailings/app/service"
	"github.com/vibast-solutions/ms-go-mailings/config"
)

const healthProbeInterval = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start the HTTP (Echo) API and the gRPC health server of the mailing service.",
	Run:   runServe,
}

// init registers the serve command.
func init() {
	rootCmd.AddCommand(serveCmd)
}

type controllers struct {
	clients  *controller.ClientController
	mails    *controller.MailController
	mailings *controller.MailingController
	index    *controller.IndexController
}

func newControllers(cfg *config.Config, db *sql.DB) controllers {
	clientRepo := repository.NewClientRepository(db)
	mailRepo := repository.NewMailRepository(db)
	mailingRepo := repository.NewMailingRepository(db)
	logRepo := repository.NewLogRepository(db)

	return controllers{
		clients:  controller.NewClientController(service.NewClientService(clientRepo)),
		mails:    controller.NewMailController(service.NewMailService(mailRepo, mailingRepo)),
		mailings: controller.NewMailingController(service.NewMailingService(mailingRepo, mailRepo, clientRepo, logRepo)),
		index:    controller.NewIndexController(service.NewStatsService(repository.NewStatsRepository(db), cfg.StatsTTL)),
	}
}

// runServe wires dependencies and starts HTTP and gRPC servers.
func runServe(_ *cobra.Command, _ []string) {
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
	auth := service.NewAuthService(repository.NewUserRepository(db))
	e := setupHTTPServer(newControllers(cfg, db), controller.BasicAuth(auth), m, logger)

	health := grpcserver.NewHealthServer(dependencyChecks(db, rdb), logger)
	grpcServer, lis := setupGRPCServer(cfg, health, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go health.Run(ctx, healthProbeInterval)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
		logger.Infof("Starting HTTP server on %s", httpAddr)
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	go func() {
		logger.Infof("Starting gRPC server on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatalf("gRPC server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	cancel()
	health.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
	grpcServer.GracefulStop()

	logger.Info("Server stopped")
}

// setupHTTPServer configures the Echo HTTP server and routes.
func setupHTTPServer(ctrls controllers, authMW echo.MiddlewareFunc, m *metrics.Metrics, logger logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = controller.HTTPErrorHandler

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			}).Info("request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", controller.Health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/", ctrls.index.Index)

	api := e.Group("/api", authMW)
	ctrls.clients.Register(api.Group("/clients"))
	ctrls.mails.Register(api.Group("/mails"))
	ctrls.mailings.Register(api.Group("/mailings"))

	return e
}

// setupGRPCServer builds the gRPC server and listener.
func setupGRPCServer(cfg *config.Config, health *grpcserver.HealthServer, logger logrus.FieldLogger) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPCHost, cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatalf("Failed to listen on gRPC port: %v", err)
	}

	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	return grpcServer, lis
}

func dependencyChecks(db *sql.DB, rdb *redis.Client) map[string]grpcserver.Check {
	return map[string]grpcserver.Check{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
}
