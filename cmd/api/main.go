package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ccreature09/poko-server/internal/config"
	"github.com/Ccreature09/poko-server/internal/infrastructure/dynamo"
	jwtinfra "github.com/Ccreature09/poko-server/internal/infrastructure/jwt"
	s3infra "github.com/Ccreature09/poko-server/internal/infrastructure/s3"
	"github.com/Ccreature09/poko-server/internal/infrastructure/smtp"
	"github.com/Ccreature09/poko-server/internal/infrastructure/sns"
	transporthttp "github.com/Ccreature09/poko-server/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for report exports.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer for the email delivery channel.
	mailer := smtp.NewMailer(cfg)

	// SNS push sender (optional — graceful fallback).
	var push sns.PushSender
	if sender, err := sns.NewSender(cfg); err == nil {
		push = sender
	} else {
		log.Printf("WARN: SNS push sender not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		ClassRepo:        dynamo.NewClassRepo(dynamoClient, cfg.DynamoTables.Classes),
		SubjectRepo:      dynamo.NewSubjectRepo(dynamoClient, cfg.DynamoTables.Subjects),
		TimetableRepo:    dynamo.NewTimetableRepo(dynamoClient, cfg.DynamoTables.Timetables),
		AttendanceRepo:   dynamo.NewAttendanceRepo(dynamoClient, cfg.DynamoTables.Attendance),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		SettingsRepo:     dynamo.NewSettingsRepo(dynamoClient, cfg.DynamoTables.NotificationSettings),
		S3Store:          s3Store,
		Mailer:           mailer,
		Push:             push,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
