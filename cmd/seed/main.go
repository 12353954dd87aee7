// Command main fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"messenger/internal/bootstrap"
	"messenger/internal/config"
	"messenger/internal/observability"
	"messenger/internal/seed"
)

func main() {
	planPath := flag.String("plan", "", "YAML seed plan (defaults apply when empty)")
	users := flag.Int("users", -1, "Override the number of generated users")
	keep := flag.Bool("keep", false, "Keep existing data instead of clearing it")
	flag.Parse()

	plan := seed.DefaultPlan()
	if *planPath != "" {
		loaded, err := seed.LoadPlan(*planPath)
		if err != nil {
			log.Fatalf("Failed to load seed plan: %v", err)
		}
		plan = loaded
	}
	if *users >= 0 {
		plan.Users = *users
	}
	if *keep {
		plan.Clean = false
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	observability.InitLogger(cfg.Env)

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.CloseDB() }()

	report, err := seed.NewSeeder(rt.DB, seed.NewFactory(plan.Seed)).Run(ctx, plan)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d friendships, %d rooms, %d messages", report.Users, report.Friendships, report.Rooms, report.Messages)
	log.Printf("All seeded users share the password %q", plan.Password)
}
