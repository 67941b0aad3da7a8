// Package health reports database connectivity through the standard gRPC
// health service and an HTTP probe.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the service name reported next to the overall ("") status.
const Service = "neograph"

// Pinger checks that the database answers.
type Pinger interface {
	VerifyConnectivity(ctx context.Context) error
}

// Checker polls a Pinger and publishes the result on a gRPC health server.
type Checker struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// New returns a Checker reporting NOT_SERVING until the first check passes.
func New(p Pinger, interval time.Duration, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	c := &Checker{
		server:   health.NewServer(),
		pinger:   p,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Register adds the health service to s.
func (c *Checker) Register(s *grpc.Server) { healthpb.RegisterHealthServer(s, c.server) }

// Check pings the database once and records the outcome.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := c.pinger.VerifyConnectivity(ctx); err != nil {
		c.logger.WarnContext(ctx, "neo4j unreachable", slog.String("error", err.Error()))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.set(status)
	return status
}

// Run checks immediately and then every interval until ctx ends, after
// which every service reports NOT_SERVING.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// ServeHTTP answers 200 while the last check passed and 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := c.server.Check(r.Context(), &healthpb.HealthCheckRequest{Service: Service})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil || res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(healthpb.HealthCheckResponse_NOT_SERVING.String() + "\n"))
		return
	}
	_, _ = w.Write([]byte(res.GetStatus().String() + "\n"))
}

func (c *Checker) set(status healthpb.HealthCheckResponse_ServingStatus) {
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(Service, status)
}

// Serve runs a gRPC server with the health service on lis until ctx ends.
func Serve(ctx context.Context, lis net.Listener, c *Checker) error {
	s := grpc.NewServer()
	c.Register(s)
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(lis) }()
	select {
	case <-ctx.Done():
		s.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
