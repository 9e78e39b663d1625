package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/handler"
	"github.com/AhmadJamshaid/nust-marketplace/internal/hub"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"
	"github.com/AhmadJamshaid/nust-marketplace/internal/repo"
	"github.com/AhmadJamshaid/nust-marketplace/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	ChatHandler handler.ChatHandler
	UserHandler handler.UserHandler
	Hub         *hub.Hub
	Config      Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("MARKETPLACE_CONFIG")
	if configPath == "" {
		configPath = "config.json"
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	con, err := db.OpenConnection(config.Store.Uri, config.Store.Database)
	if err != nil {
		return nil, fmt.Errorf("open store connection: %w", err)
	}

	messageStore := db.NewRepository[model.Message](con, config.Store.MessagesCollection)
	conversationStore := db.NewRepository[model.Conversation](con, config.Store.ConversationsCollection)
	userStore := db.NewRepository[model.User](con, config.Store.UsersCollection)

	messageRepo := repo.NewMessageRepository(con, messageStore, logger)
	conversationRepo := repo.NewConversationRepository(con, conversationStore, logger)
	catalogRepo := repo.NewCatalogRepository(con, config.Store.ListingsCollection, config.Store.RequestsCollection, logger)
	userRepo := repo.NewUserRepository(con, userStore)

	chatService := service.NewChatService(messageRepo, conversationRepo, catalogRepo, logger)
	profileService := service.NewProfileService(userRepo)

	chatHandler := handler.NewChatHandler(chatService)
	userHandler := handler.NewUserHandler(profileService)

	chatHub := hub.NewHub(chatService, config.Server.AllowedOrigins, logger)

	return &Container{
		ChatHandler: chatHandler,
		UserHandler: userHandler,
		Hub:         chatHub,
		Config:      *config,
		Logger:      logger,
		mongoClient: con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
