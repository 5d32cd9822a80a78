// Command main runs the database seeder for picfeed.
package main

import (
	"context"
	"flag"
	"log"

	"picfeed/internal/config"
	"picfeed/internal/database"
	"picfeed/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	presetPath := flag.String("preset", "", "Path to a YAML seeder preset (overrides -users and -posts)")
	dryRun := flag.Bool("dry-run", false, "Generate everything and roll back")
	flag.Parse()

	preset := seed.DefaultPreset()
	if *presetPath != "" {
		p, err := seed.LoadPreset(*presetPath)
		if err != nil {
			log.Fatalf("Failed to load preset: %v", err)
		}
		preset = p
		log.Printf("Applying preset %q from %s", preset.Name, *presetPath)
	} else {
		preset.Users = *numUsers
		preset.Posts = *numPosts
		log.Printf("Target: %d users, %d posts, clean=%v", preset.Users, preset.Posts, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db)
	s.DryRun = *dryRun

	if *shouldClean && !*dryRun {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	stats, err := s.Apply(ctx, preset)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d users, %d follows, %d posts, %d likes, %d comments",
		stats.Users, stats.Follows, stats.Posts, stats.Likes, stats.Comments)
	log.Printf("All seeded users have the password: %s", preset.Password)
}
