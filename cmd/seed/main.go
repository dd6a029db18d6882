// seed inserts a demo seminar for local testing and prints development access tokens.
// Idempotent: skips inserts if the demo seminar already exists. Tokens need JWT_PRIVATE_KEY.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/seungwongo/EduFlow/internal/attendance/code"
	"github.com/seungwongo/EduFlow/internal/config"
	"github.com/seungwongo/EduFlow/internal/db"
	identitydomain "github.com/seungwongo/EduFlow/internal/identity/domain"
	participantdomain "github.com/seungwongo/EduFlow/internal/participant/domain"
	participantrepo "github.com/seungwongo/EduFlow/internal/participant/repository"
	"github.com/seungwongo/EduFlow/internal/security"
	seminardomain "github.com/seungwongo/EduFlow/internal/seminar/domain"
	seminarrepo "github.com/seungwongo/EduFlow/internal/seminar/repository"
)

const (
	devSeminarID    = "00000000-0000-4000-8000-000000000001"
	devInstructorID = "dev-instructor-001"
	devStudentID    = "dev-student-001"
	devPendingID    = "dev-student-002"
	devAdminID      = "dev-admin-001"
	devSessionCount = 3
)

func devSessionID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-1000000000%02d", n)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	seminars := seminarrepo.NewPostgresRepository(conn)
	participants := participantrepo.NewPostgresRepository(conn)

	existing, err := seminars.GetSeminar(ctx, devSeminarID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (demo seminar exists). Skipping inserts.")
	} else {
		seed(ctx, seminars, participants)
		log.Println("Seed completed successfully.")
	}

	issued, err := code.NewGenerator(cfg.Location()).Issue(cfg.PublicOrigin, devSessionID(1))
	if err != nil {
		log.Fatalf("issue code: %v", err)
	}
	fmt.Printf("Session 1 code for %s: %s\n", issued.Date, issued.Code)
	fmt.Printf("Check-in URL: %s\n", issued.CheckinURL)

	printTokens(cfg)
}

func seed(ctx context.Context, seminars seminarrepo.Repository, participants participantrepo.Repository) {
	now := time.Now().UTC()
	sessions := make([]*seminardomain.Session, 0, devSessionCount)
	for n := 1; n <= devSessionCount; n++ {
		sessions = append(sessions, &seminardomain.Session{
			ID:            devSessionID(n),
			SeminarID:     devSeminarID,
			SessionNumber: n,
			Title:         fmt.Sprintf("Week %d", n),
		})
	}
	if err := seminars.CreateWithSessions(ctx, &seminardomain.Seminar{
		ID:              devSeminarID,
		Title:           "Go in Production",
		Description:     "Demo seminar for local development.",
		CreatedBy:       devInstructorID,
		MaxParticipants: 30,
		CreatedAt:       now,
	}, sessions); err != nil {
		log.Fatalf("create seminar: %v", err)
	}
	for i, p := range []struct {
		userID string
		status participantdomain.Status
	}{
		{devStudentID, participantdomain.StatusApproved},
		{devPendingID, participantdomain.StatusPending},
	} {
		if err := participants.Create(ctx, &participantdomain.Participant{
			ID:        fmt.Sprintf("00000000-0000-4000-8000-2000000000%02d", i+1),
			SeminarID: devSeminarID,
			UserID:    p.userID,
			Status:    p.status,
			JoinedAt:  now,
		}, 0); err != nil {
			log.Fatalf("create participant %s: %v", p.userID, err)
		}
	}
}

func printTokens(cfg *config.Config) {
	if cfg.JWTPrivateKey == "" {
		fmt.Println("JWT_PRIVATE_KEY is not set; skipping dev tokens.")
		return
	}
	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	tokens := security.NewTokenProvider(signer, nil, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	for _, u := range []struct {
		userID string
		role   identitydomain.Role
	}{
		{devInstructorID, identitydomain.RoleInstructor},
		{devStudentID, identitydomain.RoleParticipant},
		{devPendingID, identitydomain.RoleParticipant},
		{devAdminID, identitydomain.RoleAdmin},
	} {
		token, expiresAt, err := tokens.IssueAccess(u.userID, string(u.role))
		if err != nil {
			log.Fatalf("issue token for %s: %v", u.userID, err)
		}
		fmt.Printf("%s (%s, expires %s):\n%s\n", u.userID, u.role, expiresAt.Format(time.RFC3339), token)
	}
}
