// Package main provides admin management utilities for Cinelog.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"cinelog/internal/bootstrap"
	"cinelog/internal/config"
	"cinelog/internal/database"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/seed"
	"cinelog/internal/service"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <user_id>          - Promote user to admin")
	fmt.Println("  admin demote <user_id>           - Demote user from admin")
	fmt.Println("  admin list-admins                - List all admins")
	fmt.Println("  admin recompute <movie_id|all>   - Rebuild rating, review and like counts")
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

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	users := service.NewUserService(repository.NewUserRepository(db), repository.NewReviewRepository(db))

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		err = setAdmin(ctx, users, os.Args[2], command == "promote")
	case "list-admins":
		err = listAdmins(ctx, users)
	case "recompute":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		err = recompute(ctx, db, os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user ID %q", raw)
	}
	return uint(id), nil
}

func setAdmin(ctx context.Context, users *service.UserService, raw string, admin bool) error {
	id, err := parseUserID(raw)
	if err != nil {
		return err
	}
	current, err := users.GetUserByID(ctx, id)
	if err != nil {
		if service.IsAppError(err, models.CodeNotFound) {
			return fmt.Errorf("user with ID %d not found", id)
		}
		return err
	}
	if current.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) is already in that role\n", current.Nickname, current.ID)
		return nil
	}

	user, err := users.SetAdmin(ctx, id, admin)
	if err != nil {
		return err
	}
	verb := "demoted"
	if admin {
		verb = "promoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Nickname, user.ID)
	return nil
}

func listAdmins(ctx context.Context, users *service.UserService) error {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return nil
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Nickname: %s | Email: %s\n", admin.ID, admin.Nickname, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
	return nil
}

func recompute(ctx context.Context, db *gorm.DB, target string) error {
	if target == "all" {
		if err := seed.RecomputeAggregates(ctx, db); err != nil {
			return err
		}
		fmt.Println("✅ Recomputed aggregates for every movie and review")
		return nil
	}

	id, err := strconv.ParseUint(target, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid movie ID %q", target)
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.RecomputeMovieAggregate(ctx, tx, uint(id))
	})
	if err != nil {
		return err
	}
	fmt.Printf("✅ Recomputed rating for movie %d\n", id)
	return nil
}
