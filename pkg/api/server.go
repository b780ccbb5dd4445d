// Package api exposes the HTTP surface: assistant streaming endpoints,
// the file sandbox REST API, turn history, WebSocket events, and health.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/concierge/pkg/config"
	"github.com/brightpath-labs/concierge/pkg/database"
	"github.com/brightpath-labs/concierge/pkg/events"
	"github.com/brightpath-labs/concierge/pkg/llm"
	"github.com/brightpath-labs/concierge/pkg/services"
	"github.com/brightpath-labs/concierge/pkg/tools"
	"github.com/brightpath-labs/concierge/pkg/tools/files"
)

// Server wires handlers to their collaborators.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	llmClient *llm.Client
	registry  *tools.Registry
	fileSvc   *files.Service

	dbClient  *database.Client
	turnSvc   *services.TurnService
	stepSvc   *services.StepService
	eventSvc  *services.EventService
	publisher *events.Publisher
	connMgr   *events.ConnectionManager
}

// Deps carries everything a Server needs.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	LLMClient *llm.Client
	Registry  *tools.Registry
	FileSvc   *files.Service
	DBClient  *database.Client
	TurnSvc   *services.TurnService
	StepSvc   *services.StepService
	EventSvc  *services.EventService
	Publisher *events.Publisher
	ConnMgr   *events.ConnectionManager
}

// NewServer creates the API server.
func NewServer(d Deps) *Server {
	return &Server{
		cfg:       d.Config,
		logger:    d.Logger.With("component", "api"),
		llmClient: d.LLMClient,
		registry:  d.Registry,
		fileSvc:   d.FileSvc,
		dbClient:  d.DBClient,
		turnSvc:   d.TurnSvc,
		stepSvc:   d.StepSvc,
		eventSvc:  d.EventSvc,
		publisher: d.Publisher,
		connMgr:   d.ConnMgr,
	}
}

// Handler builds the gin engine with all routes registered.
func (s *Server) Handler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.Use(corsMiddleware(s.cfg.Server.AllowedOrigins))

	router.GET("/health", s.handleHealth)
	router.POST("/chat", s.handleChat)
	router.POST("/v2/assistant", s.handleAssistant)
	router.GET("/ws", s.handleWebSocket)

	turns := router.Group("/turns")
	{
		turns.GET("", s.handleListTurns)
		turns.GET("/:id", s.handleGetTurn)
	}

	filesGroup := router.Group("/files")
	{
		filesGroup.GET("", s.handleListFiles)
		filesGroup.GET("/content", s.handleReadFile)
		filesGroup.POST("", s.handleCreateFile)
		filesGroup.PUT("", s.handleEditFile)
	}

	return router
}
