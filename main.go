package main

import (
	"flag"
	"net/http"
	"os"

	"tempora/db"
	"tempora/logging"
	"tempora/migration"
	"tempora/seed"
	"tempora/server"
	"tempora/setup"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "setup/setup.yaml", "path to setup.yaml")
	seedData := flag.Bool("seed", false, "seed demo data and exit")
	flag.Parse()

	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := migration.Run(conn); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	if *seedData {
		if err := seed.Run(conn, cfg); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
		log.Info().Msg("demo data seeded")
		return
	}

	handler := server.NewRouter(conn, cfg)
	log.Info().Str("port", cfg.Server.Port).Msg("starting tempora backend")
	if err := http.ListenAndServe(":"+cfg.Server.Port, handler); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
