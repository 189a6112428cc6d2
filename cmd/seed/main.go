// Command seed fills a development database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"sudonet/internal/config"
	"sudonet/internal/database"
	"sudonet/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 80, "Number of posts to create")
	maxComments := flag.Int("comments", 6, "Maximum comments per post")
	maxCreds := flag.Int("creds", 15, "Maximum street creds per post")
	maxViews := flag.Int("views", 300, "Maximum views per post")
	days := flag.Int("days", 30, "Spread post timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a named preset (quiet, busy, viral, ghosts)")
	flag.Parse()

	log.Println("🌱 sudonet seeder")
	log.Println("=================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if db == nil {
		log.Fatal("DATABASE_URL is not set; nothing to seed")
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.SeedOptions{MaxDays: *days})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	var summary *seed.Summary
	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring count flags)", *preset)
		summary, err = s.ApplyPreset(ctx, *preset)
	} else {
		summary, err = s.Run(ctx, seed.Options{
			NumUsers:       *numUsers,
			NumPosts:       *numPosts,
			MaxComments:    *maxComments,
			MaxStreetCreds: *maxCreds,
			MaxViews:       *maxViews,
		})
	}
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Done: %d users, %d posts, %d comments, %d street creds",
		summary.Users, summary.Posts, summary.Comments, summary.StreetCreds)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
