package configuration

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/db"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/escalation"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/handler"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/hub"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/notify"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/repo"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	Hub            *hub.Hub
	Escalations    *escalation.Controller
	MonitorHandler handler.MonitorHandler
	AlertHandler   handler.AlertHandler
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	redisClient *redis.Client
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.dev.json"
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	assessmentRepo := db.NewRepository[model.AssessmentRecord](con, config.Mongo.AssessmentsCollection)
	alertEventRepo := db.NewRepository[model.AlertAuditRecord](con, config.Mongo.AlertEventsCollection)
	assignmentRepo := db.NewRepository[repo.Assignment](con, config.Mongo.AssignmentsCollection)

	auditStore := repo.NewAuditRepository(assessmentRepo, alertEventRepo, logger)
	assignments := repo.NewAssignmentRepository(assignmentRepo, logger)

	notifier := notify.NewRedisDispatcher(redisClient, config.Redis.ChannelPrefix, logger)

	escalations := escalation.NewController(notifier, auditStore, config.Escalation.MaxTier, logger)

	// No clinical analysis service is wired in this deployment; the hub
	// tolerates a nil analyzer.
	Hub := hub.NewHub(escalations, assignments, nil, auditStore, notifier, config.Server.AllowedOrigins, logger)

	monitorService := hub.NewMonitorService(Hub, escalations)

	return &Container{
		Hub:            Hub,
		Escalations:    escalations,
		MonitorHandler: handler.NewMonitorHandler(monitorService),
		AlertHandler:   handler.NewAlertHandler(escalations),
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
		redisClient:    redisClient,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.redisClient != nil {
		_ = c.redisClient.Close()
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
