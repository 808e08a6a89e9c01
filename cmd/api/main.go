// Command api serves the loop-analysis HTTP surface. Reports are persisted
// when DATABASE_URL is configured; otherwise the service runs stateless.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"magfit/adapters/api"
	"magfit/adapters/postgres"
	"magfit/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[api] no .env file found, using environment defaults")
	}

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var repo *postgres.ReportRepository
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			log.Fatalf("[api] database connection failed: %v", err)
		}
		repo = postgres.NewReportRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("[api] schema setup failed: %v", err)
		}
		log.Printf("[api] report persistence enabled")
	} else {
		log.Printf("[api] DATABASE_URL not set, running without report persistence")
	}

	server := api.NewServer(app.NewAnalysisService(), repo)
	log.Printf("[api] listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		log.Fatalf("[api] server stopped: %v", err)
	}
}
