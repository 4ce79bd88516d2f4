package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"coupon-lifecycle-engine/internal/config"
	pg "coupon-lifecycle-engine/internal/infra/db/postgres"
	"coupon-lifecycle-engine/internal/usecase"
)

// Seeds a handful of demo users and one ACTIVE book with generated codes so
// the API can be exercised right after first boot.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// Users come from an upstream account system in production; the engine
	// only reads them, so the seed inserts rows directly.
	users := []struct {
		Name  string
		Email string
	}{
		{"Ada Demo", "ada@example.com"},
		{"Brent Demo", "brent@example.com"},
		{"Cleo Demo", "cleo@example.com"},
	}
	const userSQL = `
INSERT INTO users (id, name, email, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW())
ON CONFLICT (id) DO NOTHING;`
	for _, u := range users {
		id := uuid.NewString()
		if _, err := pool.Exec(ctx, userSQL, id, u.Name, u.Email); err != nil {
			log.Fatalf("seed user %q: %v", u.Name, err)
		}
		fmt.Printf("seeded user: %s (id=%s)\n", u.Name, id)
	}

	bookRepo := pg.NewCouponBookRepo(pool)
	codeRepo := pg.NewCouponCodeRepo(pool)
	txm := pg.NewTxManager(pool)
	bookUC := usecase.NewBookUseCase(bookRepo, codeRepo, txm)

	book, err := bookUC.Create(ctx, "demo-business", usecase.CreateBookParams{
		Name:        "Launch Promo",
		Description: "Demo book seeded for local development",
		Generate: &usecase.GenerateSpec{
			Pattern: "LAUNCH-{RANDOM}",
			Count:   50,
		},
	})
	if err != nil {
		log.Fatalf("create demo book: %v", err)
	}
	fmt.Printf("seeded book: %s (id=%s, status=%s, codes=%d)\n", book.Name, book.ID, book.Status, book.TotalCodes)

	fmt.Println("Seeding complete.")
}
