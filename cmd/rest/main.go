package main

import (
	"context"
	"log"

	"canvas-annotations-be/internal/bootstrap"
	"canvas-annotations-be/internal/config"
	"canvas-annotations-be/internal/server"
	"canvas-annotations-be/internal/tracer"
	"canvas-annotations-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Drain annotation events into the audit log in the background.
	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Printf("Background consumer error: %v", err)
	}

	srv := server.New(cfg, container)

	log.Fatal(srv.Run())
}
