package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/moonsync/moonsync-server/internal/archive"
	"github.com/moonsync/moonsync-server/internal/config"
	myHTTP "github.com/moonsync/moonsync-server/internal/handler/http"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/internal/server"
	"github.com/moonsync/moonsync-server/internal/service"
	"github.com/moonsync/moonsync-server/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// a missing .env file is fine, real deployments configure through the
	// environment directly
	_ = godotenv.Load()

	log := logger.NewLogger("moonsync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	codec := archive.NewCodec(cfg.Sync.MaxDeltaSize)

	storages, err := store.NewStorages(context.Background(), cfg.Storage, codec, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	services := service.NewServices(storages, cfg, codec, log)

	handler := myHTTP.NewHandler(services, cfg.Server, cfg.Sync.MaxDeltaSize, log)

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	if err := srv.RunServer(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
