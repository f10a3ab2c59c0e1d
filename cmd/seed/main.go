package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/Abhirsi/HawalaSend-backend/internal/auth"
	"github.com/Abhirsi/HawalaSend-backend/internal/config"
	"github.com/Abhirsi/HawalaSend-backend/internal/db"
	"github.com/Abhirsi/HawalaSend-backend/internal/model"
	"github.com/Abhirsi/HawalaSend-backend/internal/repository"
)

// Seeds the initial admin user from ADMIN_EMAIL, ADMIN_USERNAME and
// ADMIN_PASSWORD. Idempotent: an existing admin is left untouched.
func main() {
	log.Println("Starting seed script...")

	email := os.Getenv("ADMIN_EMAIL")
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || username == "" || password == "" {
		log.Fatal("ADMIN_EMAIL, ADMIN_USERNAME and ADMIN_PASSWORD must be set")
	}

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	users := repository.NewUserRepository(gormDB)

	if existing, err := users.FindByEmail(ctx, email); err == nil && existing != nil {
		log.Printf("Admin user %q already exists (id=%d), nothing to do", existing.Email, existing.ID)
		return
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			log.Println("Admin user already exists, nothing to do")
			return
		}
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Admin user created (id=%d)", admin.ID)
}
