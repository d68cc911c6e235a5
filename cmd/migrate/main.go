package main

import (
	"log"

	"canvas-annotations-be/internal/config"
	"canvas-annotations-be/internal/model"
	"canvas-annotations-be/pkg/database"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to DB: %v", err)
	}

	if err := db.AutoMigrate(&model.Annotation{}); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration complete: annotations table is up to date")
}
