package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/meinhoongagan/spa-booking/availability"
	"github.com/meinhoongagan/spa-booking/config"
	"github.com/meinhoongagan/spa-booking/controllers"
	"github.com/meinhoongagan/spa-booking/cron"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/logger"
	"github.com/meinhoongagan/spa-booking/metrics"
	"github.com/meinhoongagan/spa-booking/middleware"
	"github.com/meinhoongagan/spa-booking/redis"
	"github.com/meinhoongagan/spa-booking/routes"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", true)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	if err := db.Init(cfg); err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := db.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Send()
	}
	if err := db.SeedRoles(db.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to seed roles")
	}
	metrics.Register()

	ctx := context.Background()
	var store availability.Store = availability.NewGormStore(db.DB)
	var scheduleCache controllers.ScheduleCache
	redisClient, err := redis.Init(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, schedule cache disabled")
	}
	if redisClient != nil {
		cached := availability.NewCachedStore(store, redisClient, cfg.ScheduleCacheTTL)
		store, scheduleCache = cached, cached
		defer redisClient.Close()
	}

	var mailer utils.Mailer = utils.LogMailer{}
	if cfg.MailEnabled() {
		mailer = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)
	}

	var uploader utils.Uploader
	if cfg.CloudinaryEnabled() {
		cld, err := utils.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryUploadPreset)
		if err != nil {
			log.Warn().Err(err).Msg("cloudinary disabled")
		} else {
			uploader = cld
		}
	}

	controllers.Configure(controllers.Dependencies{
		Generator:     availability.NewGenerator(store, cfg.Location),
		Guard:         availability.NewGuard(db.DB),
		ScheduleCache: scheduleCache,
		Mailer:        mailer,
		Uploader:      uploader,
		JWTSecret:     cfg.JWTSecret,
		Location:      cfg.Location,
		MaxDaysAhead:  cfg.MaxDaysAhead,
	})

	jobs := cron.New(db.DB, mailer, cfg.Location, cfg.ReminderLead)
	if err := jobs.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start cron jobs")
	}

	app := fiber.New(fiber.Config{
		AppName:      "spa-booking",
		ErrorHandler: utils.ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	routes.Setup(app, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("timezone", cfg.Location.String()).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	jobs.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
