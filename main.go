package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meinhoongagan/servicemarket/config"
	"github.com/meinhoongagan/servicemarket/cron"
	"github.com/meinhoongagan/servicemarket/db"
	"github.com/meinhoongagan/servicemarket/events"
	"github.com/meinhoongagan/servicemarket/media"
	"github.com/meinhoongagan/servicemarket/redis"
	"github.com/meinhoongagan/servicemarket/routes"
	"github.com/meinhoongagan/servicemarket/utils"
)

func main() {
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg := config.Load()

	gdb, err := db.Init(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if *migrate {
		if err := db.Migrate(gdb); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}
	if missing, err := db.MissingTables(gdb); err != nil {
		log.Printf("Warning: could not inspect schema: %v", err)
	} else if len(missing) > 0 {
		log.Printf("Warning: tables %v do not exist yet, run once with -migrate", missing)
	}

	rdb, err := redis.NewClient(redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer rdb.Close()
	challenges := redis.NewChallengeStore(rdb, cfg.OTPTTL, cfg.OTPMaxAttempts, cfg.OTPResendCooldown)

	var uploader media.Uploader = media.DisabledUploader{}
	if cld, err := media.NewCloudinaryUploader(media.CloudinaryConfig{
		CloudName:    cfg.CloudinaryCloudName,
		APIKey:       cfg.CloudinaryAPIKey,
		APISecret:    cfg.CloudinaryAPISecret,
		UploadPreset: cfg.CloudinaryUploadPreset,
	}); err != nil {
		log.Printf("Warning: media uploads disabled: %v", err)
	} else {
		uploader = cld
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPub := events.NewAMQPPublisher(cfg.RabbitMQURL)
		defer amqpPub.Close()
		publisher = amqpPub
		go events.StartConsumer(ctx, cfg.RabbitMQURL, events.LogNotifier{})
	} else {
		log.Println("Warning: RABBITMQ_URL is not set, booking events are not published")
	}

	if cfg.CronEnabled {
		scheduler, err := cron.StartCronJobs(&cron.Jobs{
			DB:                gdb,
			Publisher:         publisher,
			StalePendingAfter: cfg.StalePendingAfter,
			DigestTo:          cfg.AdminReportEmail,
			Mailer: utils.Mailer{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.EmailUser,
				Password: cfg.EmailPass,
			},
		})
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer scheduler.Stop()
	}

	app := routes.NewApp(routes.Deps{
		DB:         gdb,
		Config:     cfg,
		Challenges: challenges,
		OTPSender:  utils.ConsoleOTPSender{},
		Uploader:   uploader,
		Publisher:  publisher,
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	fmt.Printf("Server starting on port %s\n", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ server stopped: %v", err)
	}
}
