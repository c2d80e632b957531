package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/gazelab/gazetrack/internal/api"
	"github.com/gazelab/gazetrack/internal/config"
	"github.com/gazelab/gazetrack/internal/db"
	"github.com/gazelab/gazetrack/internal/middleware"
)

func main() {
	// .env is optional; deployments usually inject real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var store api.Store
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		sqliteStore, err := db.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("open sqlite store: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Printf("using sqlite store at %s", cfg.SQLitePath)
	default:
		store = api.NewMemoryStore()
		log.Printf("using in-memory store; data is lost on restart")
	}

	r := mux.NewRouter()
	api.NewRouter(store).Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	handler := c.Handler(middleware.NoStore(middleware.RequestLog(r)))

	log.Printf("gazetrack server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
