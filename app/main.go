package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ktruong/campusblog/internal/blobstore"
	"github.com/ktruong/campusblog/internal/blogservice"
	"github.com/ktruong/campusblog/internal/commentservice"
	"github.com/ktruong/campusblog/internal/common"
	"github.com/ktruong/campusblog/internal/mailservice"
	"github.com/ktruong/campusblog/internal/userservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	userService    *userservice.UserService
	blogService    *blogservice.BlogService
	commentService *commentservice.CommentService
	mailService    *mailservice.MailService
	broker         *common.MessageBroker
	blobStore      *blobstore.Store
	cache          *common.Cache
}

func main() {
	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the database
	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	// Initialize the message broker
	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupUserExchange(broker)
	if err != nil {
		logger.Error("failed to setup the user exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = common.SetupBlogExchange(broker)
	if err != nil {
		logger.Error("failed to setup the blog exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the blob store
	blobStore, err := blobstore.New(context.Background(), blobstore.Config{
		Endpoint:      cfg.StorageEndpoint,
		Region:        cfg.StorageRegion,
		Bucket:        cfg.StorageBucket,
		AccessKey:     cfg.StorageAccessKey,
		SecretKey:     cfg.StorageSecretKey,
		PublicBaseURL: cfg.StoragePublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to setup the blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	// Initialize the services
	commentService := commentservice.NewCommentService(db, broker, cache)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, broker, cache, blobStore),
		blogService:    blogservice.NewBlogService(db, cache, broker, blobStore, commentService),
		commentService: commentService,
		broker:         broker,
		blobStore:      blobStore,
		cache:          cache,
		mailService:    newMailService(cfg, broker, logger),
	}

	// Initialize the consumer
	go app.mailService.SendWelcomeEmail()
	defer app.mailService.Close()

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newMailService(cfg *Config, broker *common.MessageBroker, logger *slog.Logger) *mailservice.MailService {
	if cfg.MailProvider == "api" {
		return mailservice.NewAPIMailService(broker, cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailSender, logger)
	}

	return mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger)
}
