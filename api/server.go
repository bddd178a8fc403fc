package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/api/controllers"
	"github.com/moyoez/qrsend/api/middlewares"
	"github.com/moyoez/qrsend/api/notifyhub"
	"github.com/moyoez/qrsend/tool"
)

// Deps are the collaborators the HTTP surface drives.
type Deps struct {
	Sender    controllers.SenderService
	Drops     controllers.DropPublisher
	Directory controllers.DirectoryStore
	Hub       *notifyhub.Hub // nil disables /notify-ws
	// ReceivePin guards prepare-upload. Empty accepts everyone.
	ReceivePin string
	// RateLimit is the per-client request rate of the public API, 0 disables it.
	RateLimit int
}

// Server represents the HTTP API server
type Server struct {
	port     int
	protocol string
	deps     Deps
	engine   *gin.Engine
	server   *http.Server
	mu       sync.RWMutex
}

func NewServer(port int, protocol string, deps Deps) *Server {
	return &Server{
		port:     port,
		protocol: protocol,
		deps:     deps,
	}
}

// Handler returns the route tree, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		engine.Use(gin.Logger())
	}

	sendCtrl := controllers.NewSendController(s.deps.Sender, s.deps.Drops)
	dirCtrl := controllers.NewDirectoryController(s.deps.Directory)
	recvCtrl := controllers.NewReceiveController(s.deps.Directory, s.deps.ReceivePin)

	limiter := middlewares.RateLimit(s.deps.RateLimit)
	engine.GET("/", limiter, controllers.HandleDownloadPage) // QR link target

	// LocalSend web clients call the public API cross-origin
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}

	v2 := engine.Group("/api/localsend/v2", cors.New(corsConfig), limiter)
	{
		v2.GET("/info", controllers.HandleLocalsendV2InfoGet)
		// Download API (LocalSend protocol Section 5)
		v2.GET("/prepare-download", controllers.HandlePrepareDownload)
		v2.POST("/prepare-download", controllers.HandlePrepareDownload)
		v2.GET("/download", controllers.HandleDownload)
		v2.POST("/prepare-upload", recvCtrl.HandlePrepareUpload)
		v2.POST("/upload", recvCtrl.HandleUpload)
		v2.POST("/cancel", recvCtrl.HandleCancel)
	}
	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.POST("/send/drop", sendCtrl.HandleDrop)              // Publish a drop event
		self.POST("/send/files", sendCtrl.HandleRegister)         // Register files synchronously
		self.GET("/send/files", sendCtrl.HandleListFiles)         // Registered files
		self.DELETE("/send/files", sendCtrl.HandleRemoveFile)     // Remove one file, ?path=
		self.DELETE("/send/files/all", sendCtrl.HandleClearFiles) // Remove every file
		self.POST("/send/session", sendCtrl.HandleCreateSession)  // Issue a link for the registered files
		self.DELETE("/send/session", sendCtrl.HandleCancelSession)
		self.GET("/send/session", sendCtrl.HandleSessionStatus)
		self.GET("/send/session/qr", sendCtrl.HandleSessionQRCode)
		self.GET("/download-dir", dirCtrl.HandleGet)
		self.PUT("/download-dir", dirCtrl.HandleSet)
		self.GET("/create-qr-code", controllers.GenerateQRCode) // QR code PNG (same params as api.qrserver.com)
		self.GET("/status", controllers.UserStatus)
		if s.deps.Hub != nil {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(s.deps.Hub))
		}
	}

	return engine
}

// Start starts the HTTP server and blocks until it stops. A shutdown is not an error.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on %s://0.0.0.0:%d", s.protocol, s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	tool.DefaultLogger.Infof("[Server] Shutting down")
	return srv.Shutdown(ctx)
}
