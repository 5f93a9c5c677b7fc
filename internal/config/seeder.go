package config

import (
	"context"
	"log"

	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"
)

// Seeder handles database seeding
type Seeder struct {
	auth *services.AuthService
	cfg  BootstrapConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(auth *services.AuthService, cfg BootstrapConfig) *Seeder {
	return &Seeder{auth: auth, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	if s.cfg.LibrarianUsername == "" || s.cfg.LibrarianPassword == "" {
		return nil
	}

	log.Println("🌱 Running database seeders...")

	account, created, err := s.auth.EnsureAccount(ctx, domain.KindLibrarian, &services.RegisterInput{
		Username: s.cfg.LibrarianUsername,
		Password: s.cfg.LibrarianPassword,
		Nickname: "Bootstrap librarian",
	})
	if err != nil {
		log.Printf("⚠️ Librarian seeder skipped: %v", err)
		return err
	}

	if created {
		log.Printf("✅ Bootstrap librarian created: %s (id=%d)", account.Username, account.ID)
	} else {
		log.Printf("✅ Bootstrap librarian already exists: %s", account.Username)
	}
	return nil
}
