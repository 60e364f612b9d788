package api

import (
	"net/http"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/todo-api/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Version        string
	Environment    string
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
	RequestTimeout time.Duration

	// Metrics is optional; nil leaves requests uninstrumented.
	Metrics *middleware.Metrics
}

var registerTagNames sync.Once

// NewRouter builds the engine with middleware, the todo routes under
// /api/v1 and the service endpoints.
func NewRouter(h *TodoHandler, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler())
	}
	r.Use(middleware.Headers(cfg.Version))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", h.Health)
	r.GET("/version", versionHandler(cfg))

	v1 := r.Group("/api/v1",
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		middleware.Timeout(cfg.RequestTimeout),
	)
	registerTodoRoutes(v1, h)

	r.NoRoute(func(c *gin.Context) {
		AbortWithError(c, http.StatusNotFound, CodeRouteNotFound, "Route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		AbortWithError(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	return r
}

func registerTodoRoutes(api *gin.RouterGroup, h *TodoHandler) {
	api.GET("/todos", h.List)
	api.POST("/todos", h.Create)
	api.GET("/todos/:id", h.Get)
	api.PUT("/todos/:id", h.Update)
	api.PATCH("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
}

func versionHandler(cfg RouterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"version": cfg.Version, "env": cfg.Environment}, "")
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.RequestIDHeader, middleware.APIVersionHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// useJSONFieldNames makes validator report fields by their JSON names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
