// Package server exposes the planning services over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mkessler/plantafel/internal/importer"
	"github.com/mkessler/plantafel/internal/service"
)

type Server struct {
	todos     service.TodoService
	deps      service.DependencyService
	conflicts service.ConflictService
	sync      service.SyncService
	gantt     service.GanttService
	importer  *importer.Importer
	log       *slog.Logger
}

func New(
	todos service.TodoService,
	deps service.DependencyService,
	conflicts service.ConflictService,
	sync service.SyncService,
	gantt service.GanttService,
	imp *importer.Importer,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		todos:     todos,
		deps:      deps,
		conflicts: conflicts,
		sync:      sync,
		gantt:     gantt,
		importer:  imp,
		log:       log,
	}
}

// Router builds the gin engine with all API routes. The board frontend
// is served from another origin during development, hence the open
// CORS policy on /api.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(s.requestLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/todos", s.listTodos)
	api.POST("/todos", s.createTodo)
	api.GET("/todos/:id", s.getTodo)
	api.PUT("/todos/:id", s.updateTodo)
	api.DELETE("/todos/:id", s.deleteTodo)
	api.POST("/todos/:id/split", s.splitTodo)
	api.GET("/todos/:id/segments", s.listSegments)
	api.POST("/todos/generate", s.generateFromOrder)

	api.GET("/dependencies", s.listDependencies)
	api.POST("/dependencies", s.createDependency)
	api.DELETE("/dependencies/:id", s.deleteDependency)

	api.GET("/conflicts", s.listConflicts)
	api.POST("/conflicts/check", s.checkConflicts)
	api.POST("/conflicts/:id/resolve", s.resolveConflict)

	api.GET("/gantt/data", s.ganttData)
	api.POST("/gantt/batch", s.ganttBatch)

	api.POST("/sync/resources", s.syncResources)

	api.POST("/import", s.startImport)
	api.GET("/import/:id", s.importStatus)

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.log.Info("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}
