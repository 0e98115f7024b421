package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/queuecare/hospital-backend/internal/booking"
	"github.com/queuecare/hospital-backend/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedUsers(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, 25); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedMedicines(context.Background(), pool, 80); err != nil {
		log.Fatalf("seed medicines: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d users", count)

	// Same throwaway password for every seeded account.
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'user', now(), now())
			ON CONFLICT (email) DO NOTHING
		`, uuid.New(), gofakeit.Name(), gofakeit.Email(), string(hash))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		availability := make([]booking.DayAvailability, 0, len(weekdays))
		for _, day := range weekdays {
			availability = append(availability, booking.DayAvailability{
				Day:         day,
				IsAvailable: gofakeit.Number(0, 9) > 1,
				TimeSlots: []booking.TimeSlot{
					{StartTime: "09:00", EndTime: "12:00", MaxPatients: 6},
					{StartTime: "14:00", EndTime: "17:00", MaxPatients: 6},
				},
			})
		}

		blob, err := json.Marshal(availability)
		if err != nil {
			return err
		}

		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, availability, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, uuid.New(), gofakeit.Name(), spec, blob)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedMedicines(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d medicines", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		reorderLevel := gofakeit.Number(5, 30)
		// Leave a slice of the inventory below threshold so the stock
		// worker has something to do on a fresh database.
		stock := gofakeit.Number(0, reorderLevel*4)

		_, err := tx.Exec(ctx, `
			INSERT INTO medicines (
				id, name, stock, reorder_level, reorder_quantity,
				supplier_price, notification_status, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending', now(), now())
		`,
			uuid.New(),
			gofakeit.ProductName(),
			stock,
			reorderLevel,
			gofakeit.Number(10, 100),
			gofakeit.Price(1, 200),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
