package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vendor-chat/internal/chat"
	"vendor-chat/internal/config"
	"vendor-chat/internal/db"
	"vendor-chat/internal/middleware"
	"vendor-chat/internal/participant"
)

func main() {
	// 1. Config & Logging
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// 2. Connect to Postgres (Platform Layer)
	database, err := db.NewDatabase(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	log.Info().Msg("connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("database schema initialized")

	// 3. Optional Redis bridge for multi-instance fan-out
	var bridge *chat.Bridge
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis, fan-out bridge enabled")
		bridge = chat.NewBridge(redisClient, log)
	}

	// 4. Participant feature (vendors, the agent, auth)
	participantRepo := participant.NewRepository(database.Conn)
	participantSvc := participant.NewService(participantRepo, cfg.JWTSecret)
	participantHandler := participant.NewHandler(participantSvc, log)

	if err := participantSvc.SeedAgent(context.Background(), cfg.AgentName, cfg.AgentEmail, cfg.AgentPassword); err != nil {
		log.Fatal().Err(err).Msg("agent seeding failed")
	}

	// 5. Chat feature: store, hub, conversation service
	chatRepo := chat.NewRepository(database.Conn)
	hub := chat.NewHub(log, bridge)
	chatSvc := chat.NewService(chatRepo, hub, log)
	chatHandler := chat.NewHandler(chatSvc, log)

	if bridge != nil {
		go bridge.Run(context.Background(), hub)
	}

	authMiddleware := middleware.NewAuthMiddleware(participantSvc)

	// 6. Routes
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	// Public
	r.Post("/api/vendor/register", participantHandler.RegisterVendor)
	r.Post("/api/vendor/login", participantHandler.LoginVendor)
	r.Post("/api/agent/login", participantHandler.LoginAgent)

	// Protected (JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Get("/api/agent/default", participantHandler.DefaultAgent)
		r.Get("/api/agent/vendors", participantHandler.ListVendors)
		r.Get("/api/vendor/info", participantHandler.VendorInfo)

		r.Get("/conversation/messages", chatHandler.GetConversation)
		r.Post("/conversation/message", chatHandler.PostMessage)

		r.Get("/ws", chatHandler.ServeWs)
	})

	log.Info().Str("addr", cfg.Addr).Msg("server starting")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
