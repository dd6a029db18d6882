package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/health"

	"github.com/seungwongo/EduFlow/internal/attendance/code"
	attendancehandler "github.com/seungwongo/EduFlow/internal/attendance/handler"
	"github.com/seungwongo/EduFlow/internal/attendance/ratelimit"
	attendancerepo "github.com/seungwongo/EduFlow/internal/attendance/repository"
	attendanceservice "github.com/seungwongo/EduFlow/internal/attendance/service"
	"github.com/seungwongo/EduFlow/internal/audit"
	audithandler "github.com/seungwongo/EduFlow/internal/audit/handler"
	auditrepo "github.com/seungwongo/EduFlow/internal/audit/repository"
	"github.com/seungwongo/EduFlow/internal/config"
	"github.com/seungwongo/EduFlow/internal/db"
	healthhandler "github.com/seungwongo/EduFlow/internal/health/handler"
	identityservice "github.com/seungwongo/EduFlow/internal/identity/service"
	participanthandler "github.com/seungwongo/EduFlow/internal/participant/handler"
	participantrepo "github.com/seungwongo/EduFlow/internal/participant/repository"
	participantservice "github.com/seungwongo/EduFlow/internal/participant/service"
	"github.com/seungwongo/EduFlow/internal/policy/engine"
	"github.com/seungwongo/EduFlow/internal/security"
	seminarhandler "github.com/seungwongo/EduFlow/internal/seminar/handler"
	seminarrepo "github.com/seungwongo/EduFlow/internal/seminar/repository"
	seminarservice "github.com/seungwongo/EduFlow/internal/seminar/service"
	"github.com/seungwongo/EduFlow/internal/server"
	"github.com/seungwongo/EduFlow/internal/server/middleware"
	"github.com/seungwongo/EduFlow/internal/telemetry"
	telemetryotel "github.com/seungwongo/EduFlow/internal/telemetry/otel"
	"github.com/seungwongo/EduFlow/internal/telemetry/producer"
)

const httpShutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTPublicKey == "" {
		log.Fatal("JWT_PUBLIC_KEY is not set")
	}
	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	directory := identityservice.NewDirectory(security.NewTokenProvider(nil, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()))

	policy, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	events := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AttendanceKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if kafkaProducer != nil {
		events = append(events, kafkaProducer)
		log.Printf("telemetry: publishing attendance events to kafka topic %s", cfg.AttendanceKafkaTopic)
	}

	seminars := seminarrepo.NewPostgresRepository(conn)
	participants := participantrepo.NewPostgresRepository(conn)
	ledger := attendancerepo.NewPostgresRepository(conn)
	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditRepo, middleware.ClientIP)

	deps := attendanceservice.Deps{
		Directory:    directory,
		Sessions:     seminars,
		Participants: participants,
		Ledger:       ledger,
		Codes:        code.NewGenerator(cfg.Location()),
		Policy:       policy,
		Events:       events,
		Audit:        auditLogger,
		Origin:       cfg.PublicOrigin,
	}
	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" && cfg.CheckinMaxAttempts > 0 {
		limiter, err = ratelimit.NewFromURL(cfg.RedisURL, cfg.CheckinMaxAttempts, cfg.AttemptWindow())
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		if err := limiter.Ping(ctx); err != nil {
			log.Printf("redis: ping failed, check-in limiting will fail open: %v", err)
		}
		deps.Limiter = limiter
	}
	checkins := attendanceservice.NewCheckinService(deps)
	roster := participantservice.NewParticipantService(seminars, participants, ledger, policy, auditLogger, events, cfg.ParticipantAutoApprove)
	catalog := seminarservice.NewSeminarService(seminars, participants, policy, auditLogger, events)

	checker := healthhandler.NewChecker(conn, policy)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.HTTPDeps{
		Directory:    directory,
		Attendance:   attendancehandler.NewHandler(checkins),
		Seminars:     seminarhandler.NewHandler(catalog),
		Participants: participanthandler.NewHandler(roster),
		Audit:        audithandler.NewHandler(auditRepo, seminars, policy),
		Health:       checker,
		Events:       events,
	})
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	healthSrv := health.NewServer()
	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	go healthhandler.NewPoller(checker, healthSrv).Run(pollCtx, cfg.HealthRefreshInterval())

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()
	grpcSrv := server.NewGRPCServer(healthSrv)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down servers...")
	stopPoll()
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(ctx, httpShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	grpcSrv.GracefulStop()

	// Let in-flight async emits finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Printf("kafka close: %v", err)
		}
	}
	if limiter != nil {
		if err := limiter.Close(); err != nil {
			log.Printf("redis close: %v", err)
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("servers stopped")
}
