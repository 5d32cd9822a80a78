// Package main provides admin management utilities for picfeed.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"picfeed/internal/config"
	"picfeed/internal/database"
	"picfeed/internal/media"
	"picfeed/internal/models"
	"picfeed/internal/repository"
	"picfeed/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>     - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <username>      - Demote user from admin")
	fmt.Println("  go run ./cmd/admin deactivate <username>  - Soft-delete a user account")
	fmt.Println("  go run ./cmd/admin list-admins            - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewFollowRepository(db),
		media.NewStore(cfg.MediaRoot, cfg.MediaBaseURL, cfg.MaxUploadBytes(), cfg.MediaTranscodeWebP),
		cfg.SuggestedUsersLimit,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := os.Args[1]
	if command != "list-admins" && len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin %s <username>\n", command)
		os.Exit(1)
	}

	switch command {
	case "promote":
		report(users.SetAdmin(ctx, os.Args[2], true))("promoted to admin")
	case "demote":
		report(users.SetAdmin(ctx, os.Args[2], false))("demoted from admin")
	case "deactivate":
		report(users.Deactivate(ctx, os.Args[2]))("deactivated")
	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admin users found")
			return
		}
		fmt.Printf("Found %d admin user(s):\n", len(admins))
		for _, a := range admins {
			fmt.Printf("  - ID: %d, Username: %s, Email: %s\n", a.ID, a.Username, a.Email)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func report(user *models.User, err error) func(action string) {
	return func(action string) {
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				fmt.Println("User not found or deactivated")
				os.Exit(1)
			}
			log.Fatalf("Database error: %v", err)
		}
		fmt.Printf("✓ User %s (ID: %d) %s\n", user.Username, user.ID, action)
	}
}
