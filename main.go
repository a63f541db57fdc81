package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"medialert/m/internal/alerts"
	"medialert/m/internal/api"
	"medialert/m/internal/config"
	"medialert/m/internal/database"
	"medialert/m/internal/inventory"
	"medialert/m/internal/migrations"
	"medialert/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("unable to hash operator password: %v", err)
	}

	st := store.New(db)
	engine := alerts.New(st)
	svc := inventory.New(st, engine)
	handler := api.New(svc, engine, st, cfg.Secret, passwordHash)

	log.Printf("MediAlert server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
