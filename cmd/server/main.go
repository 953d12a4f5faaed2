package main

import (
	"log"

	"storekit-relay/internal/api"
	"storekit-relay/internal/config"
	"storekit-relay/internal/database"
	"storekit-relay/internal/models"
	"storekit-relay/internal/services"
	"storekit-relay/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Load trust anchors
	anchors, err := config.LoadTrustAnchors(config.AppConfig.AppleRootCADir)
	if err != nil {
		log.Fatal("Failed to load trust anchors:", err)
	}
	logging.Infof("Loaded %d trust anchors from %s", len(anchors), config.AppConfig.AppleRootCADir)

	// Load tenants in resolution order
	tenants, err := database.ListActiveTenants()
	if err != nil {
		log.Fatal("Failed to load tenants:", err)
	}
	tenantConfigs := make([]models.TenantConfig, 0, len(tenants))
	for i := range tenants {
		tenantConfigs = append(tenantConfigs, tenants[i].Config())
	}
	logging.Infof("Loaded %d active tenants", len(tenantConfigs))

	// Wire the pipeline
	resolver := services.NewResolver(
		tenantConfigs,
		anchors,
		config.AppConfig.AppleRootCADir,
		config.AppConfig.AppleEnableOnlineChecks,
		services.NewVerifierCache(),
	)
	kv := services.NewRedisKV(database.GetRedis())
	notifier := services.NewNtfyNotifier(
		config.AppConfig.NtfyURL,
		config.AppConfig.NtfyTopic,
		config.AppConfig.NtfyToken,
	)
	var emailer *services.EmailAlerter
	if config.AppConfig.BrevoAPIKey != "" {
		emailer = services.NewEmailAlerter(
			config.AppConfig.BrevoAPIKey,
			config.AppConfig.BrevoFromEmail,
			config.AppConfig.ServiceName,
			config.AppConfig.BrevoAlertEmail,
		)
	}
	pipeline := services.NewPipeline(
		resolver,
		services.NewDedupLedger(kv),
		services.NewLifecycleStore(kv),
		notifier,
		emailer,
	)

	// Set Gin mode
	gin.SetMode(config.AppConfig.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	api.SetupRoutes(r, pipeline)

	// Start server
	port := config.AppConfig.Port
	logging.Infof("Starting server on port %s", port)

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
