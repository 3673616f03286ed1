package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fixhub/internal/config"
	"fixhub/internal/database"
	"fixhub/internal/middleware"
	"fixhub/internal/modules/admin"
	"fixhub/internal/modules/auth"
	"fixhub/internal/modules/conversation"
	"fixhub/internal/modules/notification"
	"fixhub/internal/modules/profile"
	"fixhub/internal/modules/request"
	jwtsvc "fixhub/internal/pkg/jwt"
	"fixhub/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is empty")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewRepairerProfileRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	convoRepo := repository.NewConversationRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	verifyRepo := repository.NewVerificationRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	notifService := notification.NewService(notifRepo)
	notifHandler := notification.NewHandler(notifService)

	hub := conversation.NewHub()
	defer hub.Close()
	convoService := conversation.NewService(convoRepo, userRepo, notifService, hub)
	convoHandler := conversation.NewHandler(convoService, hub, logger)

	requestService := request.NewService(requestRepo, profileRepo, userRepo, notifService, convoService, settlementRepo)
	requestHandler := request.NewHandler(requestService, logger)

	mailer := auth.NewDevConsoleMailer(cfg.DevMailLog, logger)
	authService := auth.NewService(userRepo, verifyRepo, j, mailer, cfg.OTPPepper, cfg.OTPTTL, cfg.OTPResendCooldown)
	authHandler := auth.NewHandler(authService, int(cfg.JWTTTL.Seconds()), cfg.Env == "prod", logger)

	profileService := profile.NewService(profileRepo, userRepo)
	profileHandler := profile.NewHandler(profileService, logger)

	adminService := admin.NewService(settlementRepo, requestRepo, userRepo, notifService)
	adminHandler := admin.NewHandler(adminService, logger)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		gin.Recovery(),
		middleware.CORS(cfg.CORSAllowed),
	)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)

		// Open-jobs browsing works anonymously; repairers get their
		// matching view when a token is present.
		public := v1.Group("/")
		public.Use(middleware.OptionalAuth(j))
		requestHandler.RegisterPublic(public)

		authed := v1.Group("/")
		authed.Use(middleware.Auth(j))
		{
			requestHandler.RegisterAuthed(authed)
			profileHandler.RegisterCommon(authed)
			notifHandler.RegisterRoutes(authed)
			convoHandler.RegisterRoutes(authed)

			customer := authed.Group("/")
			customer.Use(middleware.RequireRole("customer"))
			requestHandler.RegisterCustomer(customer)

			repairer := authed.Group("/")
			repairer.Use(middleware.RequireRole("repairer"))
			requestHandler.RegisterRepairer(repairer)
			profileHandler.RegisterRepairer(repairer)

			adminGroup := authed.Group("/")
			adminGroup.Use(middleware.AdminOnly())
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	logger.Info().Str("port", cfg.Port).Msg("starting fixhub api")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
