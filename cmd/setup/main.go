package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"visitgate/internal/config"
	"visitgate/internal/domain/model"
	"visitgate/internal/infra/db/postgres"
	"visitgate/internal/infra/redis"
)

// This script sets up a clean, predictable database state for manual
// end-to-end testing: schema applied, caches wiped, one demo tenant seeded.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	schemaPath := flag.String("schema", "deploy/postgres/init.sql", "path to schema file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting environment setup ---")

	log.Println("[1/4] Applying schema...")
	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("failed to read schema from %s: %v", *schemaPath, err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	log.Println("[2/4] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[3/4] Wiping existing data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE companies, rooms, bookings, visitors, otp_sessions
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("[4/4] Seeding demo tenant...")
	seedDemoTenant(ctx, pool, cfg.TrialDays)

	log.Println("--- Environment setup complete ---")
}

// seedDemoTenant creates one trial company with a handful of rooms so the API
// is usable immediately.
func seedDemoTenant(ctx context.Context, pool *pgxpool.Pool, trialDays int) {
	companyRepo := postgres.NewCompanyRepo(pool)
	roomRepo := postgres.NewRoomRepo(pool)

	c, err := model.NewCompany("Acme Offices")
	if err != nil {
		log.Fatalf("failed to build demo company: %v", err)
	}
	c.Status = model.StatusTrial
	ends := time.Now().AddDate(0, 0, trialDays)
	c.TrialEndsAt = &ends
	if err := companyRepo.Create(ctx, nil, c); err != nil {
		log.Fatalf("failed to save demo company: %v", err)
	}
	if err := companyRepo.SetSlug(ctx, nil, c.ID, model.SlugFromName(c.Name, 0)); err != nil {
		log.Fatalf("failed to set demo slug: %v", err)
	}

	for i := 1; i <= 3; i++ {
		room, err := model.NewRoom(c.ID, i, "Meeting Room", 8)
		if err != nil {
			log.Fatalf("failed to build demo room: %v", err)
		}
		room.IsActive = i <= 2 // trial activates the first two
		if err := roomRepo.Create(ctx, nil, room); err != nil {
			log.Printf("failed to save demo room %d: %v", i, err)
		}
	}
	log.Printf("demo tenant id=%d slug=%s", c.ID, model.SlugFromName(c.Name, 0))
}
