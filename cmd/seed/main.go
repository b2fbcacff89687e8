// Package main seeds the database with the baseline roles, privileges,
// and development accounts. Safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/bootstrap"
	"github.com/wahyudibo/secure-portal/internal/config"
	"github.com/wahyudibo/secure-portal/internal/logger"
	"github.com/wahyudibo/secure-portal/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create database pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	hasher := auth.NewPasswordHasher(cfg.Password.BcryptCost)

	seeder := bootstrap.NewSeeder(userRepo, roleRepo, hasher, log)
	if err := seeder.Seed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
}
