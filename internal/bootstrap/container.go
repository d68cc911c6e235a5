package bootstrap

import (
	"canvas-annotations-be/internal/config"
	"canvas-annotations-be/internal/controller"
	"canvas-annotations-be/internal/pkg/logger"
	"canvas-annotations-be/internal/repository/unitofwork"
	"canvas-annotations-be/internal/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AnnotationController controller.IAnnotationController

	// Session stores
	StoreRegistry *service.StoreRegistry

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Loggers (exposed so main can Sync on shutdown)
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db, cfg.Annotation.MaxBatchSize)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	// Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	publisher := service.NewPublisherService(pubSub, cfg.Annotation.EventTopic)
	consumer := service.NewConsumerService(pubSub, cfg.Annotation.EventTopic, auditLogger)

	// Per-user annotation stores
	registry := service.NewStoreRegistry(
		uowFactory,
		publisher,
		sysLogger,
		cfg.Annotation.MaxBatchSize,
		cfg.Annotation.SettleDelay,
		cfg.Annotation.SessionTTL,
	)

	return &Container{
		AnnotationController: controller.NewAnnotationController(registry),
		StoreRegistry:        registry,
		ConsumerService:      consumer,
		Logger:               sysLogger,
	}
}
