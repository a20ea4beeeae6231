package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/parklink/booking-backend/internal/config"
	"github.com/parklink/booking-backend/internal/database"
	"github.com/parklink/booking-backend/internal/handlers"
	"github.com/parklink/booking-backend/internal/middleware"
	"github.com/parklink/booking-backend/internal/services"
	"github.com/parklink/booking-backend/pkg/jwt"
	"github.com/parklink/booking-backend/pkg/mailer"
	"github.com/parklink/booking-backend/pkg/paystack"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting ParkLink Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories. Transactional repositories need the raw
	// sqlx handle.
	userRepository := database.NewUserRepository(db)
	roleProfileRepository := database.NewRoleProfileRepository(db)
	parkRepository := database.NewParkRepository(db)
	vehicleRepository := database.NewVehicleRepository(db)
	bookingRepository := database.NewBookingRepository(db.DB)
	paymentRepository := database.NewPaymentRepository(db.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var mailGateway mailer.Mailer
	if cfg.SMTP.Mode == "production" {
		mailGateway = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		logger.Info("Mail in dev mode, emails will be logged instead of sent")
		mailGateway = mailer.NewDevMailer(logger)
	}

	paystackClient := paystack.NewClient(paystack.Config{
		BaseURL:     cfg.Paystack.BaseURL,
		SecretKey:   cfg.Paystack.SecretKey,
		CallbackURL: cfg.Paystack.CallbackURL,
	})

	notificationService := services.NewNotificationService(mailGateway, logger)
	permissionService := services.NewPermissionService(logger)
	reservationService := services.NewReservationService(
		bookingRepository, vehicleRepository, parkRepository, notificationService, logger,
	)
	paymentService := services.NewPaymentService(
		paymentRepository, bookingRepository, paystackClient, logger,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepository, jwtService, cfg, logger)
	userHandler := handlers.NewUserHandler(userRepository, roleProfileRepository, permissionService, logger)
	parkHandler := handlers.NewParkHandler(parkRepository, roleProfileRepository, permissionService, logger)
	vehicleHandler := handlers.NewVehicleHandler(vehicleRepository, roleProfileRepository, permissionService, logger)
	bookingHandler := handlers.NewBookingHandler(
		reservationService, bookingRepository, userRepository,
		roleProfileRepository, permissionService, notificationService, logger,
	)
	paymentHandler := handlers.NewPaymentHandler(
		paymentService, userRepository, bookingRepository, notificationService, logger,
	)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthMiddleware(jwtService, logger), authHandler.Me)
		}

		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			users := authed.Group("/users")
			{
				users.PATCH("/me", userHandler.UpdateProfile)
				users.POST("/me/addresses", userHandler.CreateAddress)
				users.GET("/me/addresses", userHandler.ListAddresses)
				users.DELETE("/me/addresses/:id", userHandler.DeleteAddress)
				users.POST("/me/emergency-contacts", userHandler.CreateEmergencyContact)
				users.GET("/me/emergency-contacts", userHandler.ListEmergencyContacts)
				users.DELETE("/me/emergency-contacts/:id", userHandler.DeleteEmergencyContact)

				users.GET("", userHandler.List)
				users.DELETE("/:id", userHandler.Deactivate)
				users.GET("/:id/roles", userHandler.ListRoles)
				users.POST("/:id/roles", userHandler.GrantRole)
				users.DELETE("/:id/roles/:role", userHandler.RevokeRole)
			}

			parks := authed.Group("/parks")
			{
				parks.GET("", parkHandler.List)
				parks.GET("/:id", parkHandler.Get)
				parks.POST("", parkHandler.Create)
				parks.PATCH("/:id", parkHandler.Update)
				parks.DELETE("/:id", parkHandler.Deactivate)
			}

			vehicles := authed.Group("/vehicles")
			{
				vehicles.GET("", vehicleHandler.List)
				vehicles.GET("/:id", vehicleHandler.Get)
				vehicles.POST("", vehicleHandler.Create)
				vehicles.PATCH("/:id", vehicleHandler.Update)
				vehicles.PUT("/:id/schedule", vehicleHandler.UpdateSchedule)
				vehicles.POST("/:id/rotate", vehicleHandler.RotateSchedule)
				vehicles.DELETE("/:id", vehicleHandler.Delete)
			}

			bookings := authed.Group("/bookings")
			{
				bookings.POST("", bookingHandler.Create)
				bookings.GET("", bookingHandler.ListMine)
				bookings.GET("/all", bookingHandler.ListAll)
				bookings.POST("/check-in", bookingHandler.CheckIn)
				bookings.GET("/:id", bookingHandler.Get)
				bookings.GET("/:id/qr", bookingHandler.QRCode)
				bookings.PATCH("/:id", bookingHandler.Update)
				bookings.POST("/:id/cancel", bookingHandler.Cancel)
				bookings.POST("/:id/check-out", bookingHandler.CheckOut)
				bookings.DELETE("/:id", bookingHandler.Delete)
			}

			payments := authed.Group("/payments")
			{
				payments.POST("", paymentHandler.Initiate)
				payments.GET("/verify/:reference", paymentHandler.Verify)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"details": "database unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	}
}
