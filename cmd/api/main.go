package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/remi-music/studio/internal/auth"
	"github.com/remi-music/studio/internal/config"
	"github.com/remi-music/studio/internal/database"
	"github.com/remi-music/studio/internal/events"
	"github.com/remi-music/studio/internal/gateway"
	"github.com/remi-music/studio/internal/handlers"
	"github.com/remi-music/studio/internal/relay"
	"github.com/remi-music/studio/internal/services"
	"github.com/remi-music/studio/internal/storage"
	"github.com/remi-music/studio/migrations"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting ReMi Studio API")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := migrations.Run(db.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	storageClient, err := storage.NewClient(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
		cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3UseSSL, cfg.S3PublicURL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicEvents)
	defer producer.Close()

	musicGateway := gateway.NewMusicClient(cfg.MiniMaxEndpoint, cfg.MiniMaxAPIKey, cfg.MiniMaxModel, cfg.GenerationTimeout)
	chatGateway := gateway.NewChatClient(cfg.GrokAPIKey, cfg.GrokEndpoint, cfg.GrokModel)
	audioRelay := relay.New(storageClient, cfg.SideStepTimeout)

	generationRepo := database.NewGenerationRepository(db)
	assistRepo := database.NewAssistRepository(db)

	generationService := services.NewGenerationService(musicGateway, audioRelay, generationRepo, producer, cfg)
	assistService := services.NewAssistService(chatGateway, assistRepo, cfg)

	h := handlers.NewHandler(generationService, assistService, db)
	identity := auth.NewService(db, cfg.SideStepTimeout)

	r := mux.NewRouter()
	r.Use(handlers.CORS)
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(identity.Middleware)
	api.HandleFunc("/music/generations", h.GenerateMusic).Methods("POST", "OPTIONS")
	api.HandleFunc("/music/generations", h.ListGenerations).Methods("GET")
	api.HandleFunc("/assist/lyrics", h.DraftLyrics).Methods("POST", "OPTIONS")
	api.HandleFunc("/assist/prompt", h.EnhancePrompt).Methods("POST", "OPTIONS")
	api.HandleFunc("/assist/cover-art", h.CoverArt).Methods("POST", "OPTIONS")

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
		// Write timeout has to cover the music gateway's ceiling
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerationTimeout + 30*time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("API exited")
}
