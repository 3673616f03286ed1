package main

import (
	"context"
	"log"
	"os"
	"time"

	"fixhub/internal/database"
	"fixhub/internal/repository"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = "fixhub.db"
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	codes := repository.NewVerificationRepository(db)
	n, err := codes.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		log.Fatalf("cleanup verification_codes failed: %v", err)
	}

	log.Printf("auth cleanup completed: verification_codes=%d", n)
}
