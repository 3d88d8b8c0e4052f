package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"culturin/internal/config"
	"culturin/internal/database"
	"culturin/internal/domain"
	jwtsvc "culturin/internal/pkg/jwt"
	"culturin/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProdLike() {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg.DatabaseURL, zap.NewNop())
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	experiences := []domain.Experience{
		{
			ID:             "kyoto-tea-ceremony",
			OperatorSlug:   "kyoto-tea",
			Title:          "Traditional Tea Ceremony",
			Description:    "A guided tea ceremony in a 200-year-old machiya townhouse.",
			Location:       "Kyoto, Japan",
			PricePerPerson: 65,
			DurationMin:    90,
			TimeSlots:      []string{"10:00", "14:00", "16:30"},
		},
		{
			ID:             "kyoto-night-walk",
			OperatorSlug:   "kyoto-tea",
			Title:          "Gion Night Walk",
			Location:       "Kyoto, Japan",
			PricePerPerson: 30,
			DurationMin:    120,
			TimeSlots:      []string{"19:00", "20:30"},
		},
		{
			ID:             "lisbon-azulejo",
			OperatorSlug:   "lisbon-tiles",
			Title:          "Azulejo Painting Workshop",
			Location:       "Lisbon, Portugal",
			PricePerPerson: 48,
			DurationMin:    150,
		},
		{
			ID:             "oaxaca-cooking",
			OperatorSlug:   "oaxaca-kitchen",
			Title:          "Mole Cooking Class",
			Location:       "Oaxaca, Mexico",
			PricePerPerson: 55,
			DurationMin:    180,
			TimeSlots:      []string{"09:30"},
		},
	}

	repo := repository.NewExperienceRepository(db)
	ctx := context.Background()
	for i := range experiences {
		experiences[i].Currency = cfg.Currency
		experiences[i].IsActive = true
		if err := repo.Upsert(ctx, &experiences[i]); err != nil {
			log.Fatalf("seed %s: %v", experiences[i].ID, err)
		}
	}
	log.Printf("Seeded %d experiences", len(experiences))

	j := jwtsvc.New(cfg.JWTSecret, 30*24*time.Hour)
	for _, slug := range []string{"kyoto-tea", "lisbon-tiles", "oaxaca-kitchen"} {
		token, err := j.GenerateToken(slug, jwtsvc.RoleOperator)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("operator %s token: %s", slug, token)
	}
}
