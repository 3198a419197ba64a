// Package server is the REST backend behind the console. It also serves a
// read-only browser rendition of the user table.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	ginlog "github.com/toorop/gin-logrus"

	"coe-console/internal/directory"
)

//go:embed templates/*.html
var templateFS embed.FS

// Store is the persistence the handlers need.
type Store interface {
	ListUsers(ctx context.Context) ([]directory.User, error)
	ListDepartments(ctx context.Context) ([]directory.Department, error)
	DepartmentIDs(ctx context.Context) (map[string]int, error)
	UpdateUser(ctx context.Context, id string, u directory.User) error
	DeleteUser(ctx context.Context, id string) error
	UpsertUsers(ctx context.Context, rows []directory.UploadRow) ([]string, error)
	Ping(ctx context.Context) error
}

type Options struct {
	// CORSOrigins defaults to every origin.
	CORSOrigins []string
	Debug       bool
}

type Server struct {
	store   Store
	log     *logrus.Logger
	engine  *gin.Engine
	handler http.Handler
}

// RequestIDHeader carries the per-request ID in both directions.
const RequestIDHeader = "X-Request-ID"

func New(store Store, log *logrus.Logger, opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{store: store, log: log}

	router := gin.New()
	router.Use(requestID(), ginlog.Logger(log), gin.Recovery())
	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"),
	))

	router.GET("/", s.index)
	router.GET("/export.xlsx", s.exportUsers)
	router.GET("/healthz", s.healthz)

	api := router.Group("/api")
	{
		api.POST("/upload-users", s.uploadUsers)
		api.GET("/users", s.getUsers)
		api.PUT("/users/:id", s.updateUser)
		api.DELETE("/users/:id", s.deleteUser)
		api.GET("/departments", s.getDepartments)
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})

	s.engine = router
	s.handler = c.Handler(router)
	return s
}

// Handler returns the router wrapped in the CORS layer.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// entry is the request-scoped log entry.
func (s *Server) entry(c *gin.Context) *logrus.Entry {
	return s.log.WithField("request_id", c.GetString("request_id"))
}
