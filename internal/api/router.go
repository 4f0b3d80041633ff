package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hyeonwoo/ledgerflow/internal/api/handler"
	"github.com/hyeonwoo/ledgerflow/internal/api/middleware"
	"github.com/hyeonwoo/ledgerflow/internal/logger"
	"github.com/hyeonwoo/ledgerflow/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	intake *service.IntakeService,
	log *logger.Logger,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	accountingHandler := handler.NewAccountingHandler(intake)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		accounting := v1.Group("/accounting")
		{
			accounting.POST("/process", accountingHandler.Process)
			accounting.GET("/jobs/:id", accountingHandler.GetJob)
			accounting.GET("/records", accountingHandler.GetRecords)
		}
	}

	return r
}
