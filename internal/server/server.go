// Package server wires the HTTP routes of the moneybook API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"moneybook/internal/handlers"
	"moneybook/internal/logger"
	"moneybook/internal/middleware"
	"moneybook/internal/money"
	"moneybook/internal/services"

	_ "moneybook/internal/docs" // swagger docs
)

// Options configures NewRouter.
type Options struct {
	Gateway       services.Gateway
	Audit         services.AuditServicer
	Formatter     *money.Formatter
	Provider      string
	CORSOrigins   []string
	AuthRateLimit int
	// Swagger mounts /swagger/*any when set.
	Swagger bool
}

// NewRouter builds the gin engine with every API route.
func NewRouter(opts Options) *gin.Engine {
	gw := opts.Gateway

	authHandler := handlers.NewAuthHandler(gw)
	accountHandler := handlers.NewAccountHandler(gw, gw, opts.Audit)
	categoryHandler := handlers.NewCategoryHandler(gw, opts.Audit)
	transactionHandler := handlers.NewTransactionHandler(gw, gw, gw, opts.Audit)
	dashboardHandler := handlers.NewDashboardHandler(gw, opts.Formatter)
	reportHandler := handlers.NewReportHandler(gw, opts.Formatter)
	dataHandler := handlers.NewDataHandler(gw, opts.Audit)
	auditHandler := handlers.NewAuditHandler(opts.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		if err := gw.Init(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "provider": opts.Provider})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": opts.Provider})
	})

	v1 := router.Group("/api/v1")

	// Public auth routes
	limiter := middleware.NewRateLimiter(opts.AuthRateLimit)
	auth := v1.Group("/auth")
	auth.POST("/register", limiter.Middleware(), authHandler.Register)
	auth.POST("/login", limiter.Middleware(), authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(gw))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/session", authHandler.GetSession)
	protected.GET("/dashboard", dashboardHandler.GetDashboard)

	accounts := protected.Group("/accounts")
	accounts.GET("", accountHandler.ListAccounts)
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	transfers := protected.Group("/transfers")
	transfers.PUT("/:transfer_id", transactionHandler.UpdateTransfer)
	transfers.DELETE("/:transfer_id", transactionHandler.DeleteTransfer)

	reports := protected.Group("/reports")
	reports.GET("/expenses", reportHandler.GetExpenseReport)
	reports.GET("/expenses.png", reportHandler.GetExpenseChart)

	data := protected.Group("/data")
	data.GET("/export", dataHandler.Export)
	data.POST("/import", dataHandler.Import)
	data.POST("/reset", dataHandler.Reset)
	data.POST("/seed", dataHandler.Seed)

	protected.GET("/audit", auditHandler.ListAuditLogs)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Server wraps the HTTP server.
type Server struct {
	server *http.Server
}

// New returns a server listening on port.
func New(port string, handler http.Handler) *Server {
	return &Server{server: &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	logger.Get().Infow("Starting moneybook server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
