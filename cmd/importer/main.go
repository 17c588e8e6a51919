package main

import (
	"context"
	"flag"
	"os"

	"github.com/crazyskateface/workbrew-backend/internal/cache"
	"github.com/crazyskateface/workbrew-backend/internal/config"
	"github.com/crazyskateface/workbrew-backend/internal/logger"
	"github.com/crazyskateface/workbrew-backend/internal/repository"
	"github.com/crazyskateface/workbrew-backend/internal/service"
	"github.com/crazyskateface/workbrew-backend/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	configPath := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *file == "" {
		log.Error().Msg("--file flag is required")
		flag.Usage()
		os.Exit(1)
	}

	log.Info().Str("file", *file).Msg("starting import")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	defer f.Close()

	records, err := parseCSV(f)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}
	log.Info().Int("records", len(records)).Msg("parsed records")

	ctx := context.Background()
	db, closeStore, err := store.Open(ctx, cfg, repository.IndexSpec(cfg.GeohashIndex))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open store")
	}
	defer closeStore()

	backend, closeCache, err := cache.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open cache")
	}
	defer closeCache()

	repo := repository.NewPlaceRepository(db, backend, cfg.PlacesTable, cfg.GeohashIndex)
	places := service.NewPlaceService(repo)

	ids, err := importPlaces(ctx, places, records)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot import places")
	}

	if err := verifyImport(ctx, places, ids); err != nil {
		log.Fatal().Err(err).Msg("import verification failed")
	}

	log.Info().Int("places", len(ids)).Msg("import complete")
}
