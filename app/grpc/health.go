package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the mailing service.
const ServiceName = "mailings"

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthServer reports SERVING while every dependency check passes.
type HealthServer struct {
	server *health.Server
	checks map[string]Check
	logger logrus.FieldLogger
}

func NewHealthServer(checks map[string]Check, logger logrus.FieldLogger) *HealthServer {
	return &HealthServer{
		server: health.NewServer(),
		checks: checks,
		logger: logger,
	}
}

// Register exposes the standard grpc.health.v1 service on s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Probe runs every check once and publishes the resulting status.
func (h *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run probes every interval until ctx is cancelled.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		h.Probe(probeCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks every service NOT_SERVING ahead of a graceful stop.
func (h *HealthServer) Shutdown() {
	h.server.Shutdown()
}
