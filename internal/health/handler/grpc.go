package handler

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Poller refreshes the standard gRPC health status from a Checker.
type Poller struct {
	checker *Checker
	server  *health.Server
	last    healthpb.HealthCheckResponse_ServingStatus
}

// NewPoller returns a Poller that updates server's overall ("") status.
func NewPoller(checker *Checker, server *health.Server) *Poller {
	return &Poller{checker: checker, server: server, last: healthpb.HealthCheckResponse_UNKNOWN}
}

// Refresh runs one check and publishes SERVING or NOT_SERVING. Transitions are logged.
func (p *Poller) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	err := p.checker.Check(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if status != p.last {
		if err != nil {
			log.Printf("health: not serving: %v", err)
		} else {
			log.Printf("health: serving")
		}
		p.last = status
	}
	p.server.SetServingStatus("", status)
	return status
}

// Run refreshes immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	p.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}
