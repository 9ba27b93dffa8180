// Command seed fills the database with demo users, the movie catalog and
// reviews.
package main

import (
	"context"
	"flag"
	"log"

	"cinelog/internal/config"
	"cinelog/internal/database"
	"cinelog/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	perUser := flag.Int("reviews", defaults.ReviewsPerUser, "Reviews written by each user")
	likes := flag.Float64("likes", defaults.LikeChance, "Chance that a user likes another user's review")
	comments := flag.Float64("comments", defaults.CommentChance, "Chance that a user comments on another user's review")
	days := flag.Int("days", defaults.MaxDays, "Spread review dates over this many past days")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", false, "Delete all rows before seeding")
	fast := flag.Bool("fast", false, "Store the demo password unhashed (login will not work)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	summary, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:       *numUsers,
		ReviewsPerUser: *perUser,
		LikeChance:     *likes,
		CommentChance:  *comments,
		MaxDays:        *days,
		RandSeed:       *randSeed,
		ShouldClean:    *shouldClean,
		SkipBcrypt:     *fast,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %s", summary)
	log.Printf("📧 All demo users have the password: %s", seed.DefaultPassword)
}
