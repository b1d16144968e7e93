// Command admin manages accounts outside the RPC API.
//
//	admin -create-user -name Asha -email asha@example.com
//	admin -token -user <id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/config"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	"github.com/mmynk/fintrack/pkg/logging"
)

func main() {
	createUser := flag.Bool("create-user", false, "create a user and print its ID and a token")
	mintToken := flag.Bool("token", false, "print a bearer token for an existing user")
	name := flag.String("name", "", "display name for -create-user")
	email := flag.String("email", "", "email for -create-user")
	userID := flag.String("user", "", "user ID for -token")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	logging.Setup()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	ctx := context.Background()

	var user *models.User
	switch {
	case *createUser:
		if *name == "" || *email == "" {
			slog.Error("-name and -email are required")
			os.Exit(2)
		}
		user = &models.User{Name: *name, Email: *email, Active: true}
		if err := store.CreateUser(ctx, user); err != nil {
			slog.Error("Failed to create user", "error", err)
			os.Exit(1)
		}
		fmt.Println("user:", user.ID)
	case *mintToken:
		if *userID == "" {
			slog.Error("-user is required")
			os.Exit(2)
		}
		user, err = store.GetUser(ctx, *userID)
		if err != nil {
			slog.Error("Failed to load user", "user_id", *userID, "error", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	token, err := jwtManager.Generate(user)
	if err != nil {
		slog.Error("Failed to mint token", "error", err)
		os.Exit(1)
	}
	fmt.Println("token:", token)
}
