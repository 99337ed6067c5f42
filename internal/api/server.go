package api

import (
	"fmt"
	"net/http"

	"saggita/internal/cache"
	"saggita/internal/config"
	"saggita/internal/database"
	"saggita/internal/handlers"
	"saggita/internal/logger"
	"saggita/internal/messaging"
	"saggita/internal/middleware"
	"saggita/internal/repository"
	"saggita/internal/search"
	"saggita/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API over the enrollment and roster services
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer connects the backing services and builds the router. The store
// is mandatory; the bus, the search index and the cache are optional and
// their features degrade when missing.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Warn("NATS unavailable, notifications disabled", "error", err)
		natsClient = nil
	}

	var searchClient *search.Client
	if cfg.Search.Enabled {
		searchClient, err = search.NewClient(cfg.Search)
		if err != nil {
			log.Warn("Elasticsearch unavailable, falling back to store search", "error", err)
			searchClient = nil
		}
	}

	var valkeyClient *cache.ValkeyClient
	if cfg.Cache.Enabled {
		valkeyClient, err = cache.NewValkeyClient(cfg.Cache)
		if err != nil {
			log.Warn("Valkey unavailable, catalog cache disabled", "error", err)
			valkeyClient = nil
		}
	}

	repos := repository.NewRepositories(db)

	var publisher service.Publisher
	if natsClient != nil {
		publisher = natsClient
	}
	var searcher service.Searcher
	if searchClient != nil {
		searcher = searchClient
	}
	var catalogCache service.CatalogCache
	if valkeyClient != nil {
		catalogCache = valkeyClient
	}

	services := service.New(cfg, repos, publisher, searcher, catalogCache)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		services: services,
		repos:    repos,
	}
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.New(s.services)

	api := s.router.Group("/api")
	{
		// Public endpoints: the enrollment form and the confirmation page
		api.GET("/catalog", h.GetCatalog)
		api.GET("/groups/:id/capacity", h.GetGroupCapacity)
		api.POST("/registrations", h.Register)
		api.POST("/registrations/action", h.FinalizeAction)
		api.GET("/registrations/status/:ref", h.GetRegistrationStatus)

		// Instructor endpoints: sessions and attendance
		staff := api.Group("/staff")
		staff.Use(middleware.BasicAuth(s.repos.Staff, false))
		{
			staff.POST("/sessions", h.CreateSession)
			staff.GET("/sessions/:id/attendance", h.GetSessionAttendance)
			staff.POST("/sessions/:id/attendance", h.RecordAttendance)
			staff.GET("/groups/:id/sessions", h.ListGroupSessions)
		}

		// Admin endpoints: roster, registrations, payments
		admin := api.Group("/admin")
		admin.Use(middleware.BasicAuth(s.repos.Staff, true))
		{
			admin.GET("/groups", h.ListGroups)

			admin.GET("/registrations", h.ListRegistrations)
			admin.GET("/registrations/:id", h.GetRegistration)
			admin.PATCH("/registrations/:id", h.UpdateRegistration)

			admin.GET("/students", h.ListRoster)
			admin.POST("/students", h.CreateStudent)
			admin.GET("/students/history", h.LegacyHistory)
			admin.GET("/students/:id", h.GetStudent)
			admin.PUT("/students/:id", h.UpdateStudent)
			admin.DELETE("/students/:id", h.DeleteStudent)
			admin.GET("/students/:id/attendance", h.StudentAttendanceHistory)
			admin.GET("/students/:id/payments", h.StudentPayments)
			admin.POST("/students/:id/payments", h.AddStudentPayment)

			admin.PATCH("/attendances/:id", h.CorrectAttendance)
			admin.PUT("/payments/:id", h.UpdatePayment)
			admin.DELETE("/payments/:id", h.DeletePayment)

			admin.POST("/catalog/invalidate", h.InvalidateCatalog)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "saggita-api",
		"version": "1.0.0",
	})
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Repos exposes the repositories for maintenance commands
func (s *Server) Repos() *repository.Repositories {
	return s.repos
}

// Cleanup closes open connections
func (s *Server) Cleanup() error {
	log := logger.Get()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}
	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			log.Error("Error closing Valkey connection", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error("Error closing database connection", "error", err)
			return err
		}
	}
	return nil
}
