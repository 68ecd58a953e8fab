package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/hirecopilot/relay/pkg/config"
	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/logx"
)

func main() {
	// 1. Initialize Logger
	logLevel := getEnv("LOG_LEVEL", "info")
	switch logLevel {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}

	logx.Info("🚀 Starting HireCopilot API Server...")

	// 2. Load Config & Initialize Dependency Container
	cfg := config.Load()
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 3. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "HireCopilot API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           120 * time.Second,
		EnablePrintRoutes:     false,
	})

	// 4. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return "req-" + uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 5. Health Check & Info Endpoints
	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler)
	app.Get("/api/v1/docs", apiDocsHandler)

	// 6. Register Routes

	// ========================================================================
	// Authentication Routes
	// ========================================================================
	// Routes: /auth/signup, /auth/login, /auth/refresh, /auth/logout,
	//         /auth/me, /auth/verify-email, /auth/oauth/:provider
	container.IAM.AuthHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	logx.Info("✓ Auth routes registered")

	// ========================================================================
	// Invitations: /invitations/public/*, /api/v1/invitations/*
	// ========================================================================
	container.IAM.InvitationHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	logx.Info("✓ Invitation routes registered")

	// ========================================================================
	// Users: /api/v1/users/*
	// ========================================================================
	container.IAM.UserHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	logx.Info("✓ User routes registered")

	// ========================================================================
	// Company: /api/v1/company/*
	// ========================================================================
	container.IAM.CompanyHandlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	logx.Info("✓ Company routes registered")

	// 7. 404 Handler
	app.Use(notFoundHandler)

	// 8. Background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	// 9. Print Route Summary
	printRouteSummary()

	// 10. Start Server with Graceful Shutdown
	startServer(app)
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler returns a health check handler
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "hirecopilot-api",
			"version": getEnv("APP_VERSION", "1.0.0"),
		}

		// Check database
		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		// Check Redis
		if err := container.Redis.Ping(c.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		// Check storage (optional - can be slow)
		checkStorage := c.QueryBool("check_storage", false)
		if checkStorage {
			if exists, err := container.FileSystem.Exists(c.Context(), ".health-check"); err != nil {
				health["storage"] = "unhealthy"
				health["storage_error"] = err.Error()
			} else {
				health["storage"] = "healthy"
				health["storage_accessible"] = exists
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// infoHandler returns basic API information
func infoHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":     "HireCopilot API",
		"version":     getEnv("APP_VERSION", "1.0.0"),
		"description": "Multi-tenant hiring assistant back end",
		"features": []string{
			"Invite-based account provisioning",
			"Administrator-gated user management",
			"OAuth authentication",
		},
		"endpoints": fiber.Map{
			"docs":   "/api/v1/docs",
			"health": "/health",
		},
	})
}

// apiDocsHandler returns API documentation
func apiDocsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"api_version": "v1",
		"base_url":    getEnv("API_BASE_URL", "http://localhost:8080"),
		"endpoints": fiber.Map{
			"authentication": fiber.Map{
				"signup":       "POST /auth/signup",
				"login":        "POST /auth/login",
				"refresh":      "POST /auth/refresh",
				"logout":       "POST /auth/logout",
				"me":           "GET /auth/me",
				"verify_email": "GET /auth/verify-email?token=<token>",
				"oauth":        "GET /auth/oauth/:provider",
			},
			"invitations": fiber.Map{
				"list":    "GET /api/v1/invitations",
				"create":  "POST /api/v1/invitations",
				"resend":  "POST /api/v1/invitations/:token/resend",
				"revoke":  "DELETE /api/v1/invitations/:token",
				"inspect": "GET /invitations/public/:token",
				"redeem":  "POST /invitations/public/redeem",
			},
			"users": fiber.Map{
				"list":        "GET /api/v1/users",
				"update_me":   "PATCH /api/v1/users/me",
				"change_role": "PATCH /api/v1/users/:id/role",
				"delete":      "DELETE /api/v1/users/:id",
			},
			"company": fiber.Map{
				"get":     "GET /api/v1/company",
				"onboard": "POST /api/v1/company",
				"update":  "PATCH /api/v1/company",
				"logo":    "PUT /api/v1/company/logo",
			},
		},
		"authentication": fiber.Map{
			"types": []string{"JWT"},
			"headers": fiber.Map{
				"jwt": "Authorization: Bearer <token>",
			},
		},
	})
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	// Log the error with context
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
		"user_agent": c.Get("User-Agent"),
	}).Errorf("Request error: %v", err)

	// If it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":      e.Message,
			"code":       "FIBER_ERROR",
			"status":     e.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	// If it's our custom errx.Error
	if e, ok := err.(*errx.Error); ok {
		response := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": c.Get("X-Request-ID"),
		}

		// Include details if present
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}

		// Include underlying error in debug mode
		if getEnv("DEBUG", "false") == "true" && e.Err != nil {
			response["underlying_error"] = e.Err.Error()
		}

		return c.Status(e.HTTPStatus).JSON(response)
	}

	// Default unknown error
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"type":       "INTERNAL",
		"code":       "INTERNAL_ERROR",
		"message":    "An unexpected error occurred",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Utility Functions
// ============================================================================

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Auth: /auth/*")
	logx.Info("   ├─ Invitations: /invitations/public/*, /api/v1/invitations/*")
	logx.Info("   ├─ Users: /api/v1/users/*")
	logx.Info("   ├─ Company: /api/v1/company/*")
	logx.Info("   ├─ Health: /health")
	logx.Info("   └─ Docs: /api/v1/docs")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App) {
	port := getEnv("PORT", "8080")

	// Run server in a goroutine
	go func() {
		logx.Info("=" + repeatString("=", 60))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("📚 API Docs: http://localhost:%s/api/v1/docs", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info("=" + repeatString("=", 60))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	gracefulShutdown(app)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Wait for interrupt signal
	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	// Shutdown the server with timeout
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
