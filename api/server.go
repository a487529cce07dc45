package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/codedrop/api/controllers"
	"github.com/moyoez/codedrop/api/eventhub"
	"github.com/moyoez/codedrop/api/middlewares"
	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/storage"
	"github.com/moyoez/codedrop/store"
	"github.com/moyoez/codedrop/tool"
)

// Server represents the HTTP API server hosting the transfer session API.
type Server struct {
	port     int
	registry *session.Registry
	hub      *eventhub.Hub
	chunks   *store.DiskStore
	history  *storage.Store

	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// NewServer wires the transfer registry, event hub, chunk spool and history
// store into one HTTP server.
func NewServer(port int, registry *session.Registry, hub *eventhub.Hub, chunks *store.DiskStore, history *storage.Store) *Server {
	return &Server{
		port:     port,
		registry: registry,
		hub:      hub,
		chunks:   chunks,
		history:  history,
	}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	engine.Use(middlewares.AllowAllCORS())
	engine.Use(gin.Recovery())

	// Initialize controllers
	sessionCtrl := controllers.NewSessionController(s.registry)
	chunkCtrl := controllers.NewChunkController(s.registry)
	downloadCtrl := controllers.NewDownloadController(s.registry, s.chunks)
	historyCtrl := controllers.NewHistoryController(s.history)

	v1 := engine.Group("/api/transfer/v1")
	{
		v1.POST("/session", sessionCtrl.HandleCreate)
		v1.POST("/session/join", sessionCtrl.HandleJoin)
		v1.POST("/session/:code/start", sessionCtrl.HandleStart)
		v1.POST("/session/:code/complete", chunkCtrl.HandleComplete)
		v1.GET("/session/:code", sessionCtrl.HandlePoll)
		v1.GET("/session/:code/qr", controllers.HandleSessionQR(s.registry))
		v1.DELETE("/session/:code", sessionCtrl.HandleCancel)
		v1.POST("/chunk/upload", chunkCtrl.HandleUpload)
		v1.GET("/download/:code", downloadCtrl.HandleDownload)
		v1.GET("/history", historyCtrl.HandleList)
		v1.GET("/config", controllers.HandlePolicyGet(s.registry))
		v1.GET("/transfer-ws", eventhub.HandleTransferWS(s.hub))
	}

	return engine
}

// Start starts the HTTP server
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: engine,
	}
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://0.0.0.0:%d", s.port)
	return s.server.ListenAndServe()
}
