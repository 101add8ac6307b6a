package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/custody"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/handler"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/middleware"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/config"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/database"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/jwtutil"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	conf, err := config.Load("worktrack")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations for all domain models
	if err := database.MigrateModels(
		&model.Company{},
		&model.User{},
		&model.Project{},
		&model.ProjectMember{},
		&model.WorkItem{},
		&model.FileTicket{},
		&model.FileTicketTransfer{},
		&model.ActivityLog{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Wire the core: store, visibility resolver, permission gate, audit
	// recorder and the custody state machine.
	st := store.NewGormStore(db)
	resolver := authz.NewResolver(st)
	gate := authz.NewGate(st, resolver)
	recorder := audit.NewStoreRecorder(st, log)
	machine := custody.NewMachine(st, gate, recorder, log)

	h := handler.New(st, resolver, gate, machine, recorder, jwt)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.Middleware())

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Public routes
	e.GET("/health", h.Health)
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)

	// Secured routes - require authentication
	api := e.Group("")
	api.Use(middleware.JWTAuthMiddleware(jwt))

	api.POST("/users", h.CreateUser)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
	api.DELETE("/users/:id", h.DeleteUser)
	api.POST("/users/superadmin/transfer", h.TransferSuperAdmin)

	api.POST("/projects", h.CreateProject)
	api.GET("/projects", h.ListProjects)
	api.GET("/projects/:id", h.GetProject)
	api.POST("/projects/:id/members", h.AddProjectMember)
	api.DELETE("/projects/:id/members/:user_id", h.RemoveProjectMember)

	api.POST("/workitems", h.CreateWorkItem)
	api.GET("/workitems", h.ListWorkItems)
	api.GET("/workitems/:id", h.GetWorkItem)
	api.PUT("/workitems/:id", h.UpdateWorkItem)
	api.DELETE("/workitems/:id", h.DeleteWorkItem)

	api.POST("/filetickets", h.CreateFileTicket)
	api.GET("/filetickets/:id", h.GetFileTicket)
	api.POST("/filetickets/:id/transfer", h.TransferFileTicket)
	api.POST("/filetickets/:id/receive", h.ReceiveFileTicket)
	api.POST("/filetickets/:id/status", h.UpdateFileTicketStatus)

	api.GET("/activity", h.ListActivity)

	// Start server
	log.Info("Starting worktrack-service on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
