package main

import (
	"context"
	"log"

	"mdx-backend/internal/bootstrap"
	"mdx-backend/internal/server"
	"mdx-backend/internal/shared/config"
	"mdx-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{
		DBOptions: db.DefaultServerOptions(),
	})
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	r := server.NewRouter(app)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
