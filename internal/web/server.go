// Package web serves the blog over HTTP.
package web

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Alp4ka/sloth/blog"
	"github.com/Alp4ka/sloth/internal/config"
)

type Server struct {
	repo   *blog.Repository
	cfg    *config.Config
	logger logrus.FieldLogger
	engine *gin.Engine
}

func New(repo *blog.Repository, cfg *config.Config, logger logrus.FieldLogger) (*Server, error) {
	if repo == nil {
		return nil, errors.New("repository is nil")
	}
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		logger = silent
	}

	s := &Server{repo: repo, cfg: cfg, logger: logger}
	s.engine = s.setupRouter()

	return s, nil
}

// Handler returns the routed engine.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.loggerMiddleware())

	r.GET("/", s.listPublished)
	r.GET("/posts/:year/:month/:day/:slug", s.showPost)
	r.GET("/tags/:tag", s.listTagged)
	r.GET("/categories/:id/posts", s.listCategory)
	r.GET("/categories.json", s.listCategories)
	r.GET("/feed", s.feed)

	admin := r.Group("/admin", s.requireAdmin())
	admin.GET("/drafts", s.listDrafts)
	admin.GET("/posts/:id", s.getPost)
	admin.POST("/posts", s.createPost)
	admin.PUT("/posts/:id", s.updatePost)
	admin.DELETE("/posts/:id", s.deletePost)
	admin.POST("/categories", s.createCategory)
	admin.DELETE("/categories/:id", s.deleteCategory)

	return r
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.WithFields(logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	}
}
