package httpapi

import (
	"errors"
	"strings"
	"time"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// DefaultEndpoint is the path that serves the token API when none is set.
const DefaultEndpoint = "/"

// RequestIDHeader is read from requests and echoed on responses.
const RequestIDHeader = "X-Request-Id"

// Options configures NewRouter.
type Options struct {
	Engine   *couchjwt.Engine
	Endpoint string
	// CORSOrigins enables CORS for the listed origins. "*" allows any.
	CORSOrigins []string
	Logger      hclog.Logger
	// Debug switches gin to debug mode.
	Debug bool
}

var errNilEngine = errors.New("httpapi: nil engine")

// NewRouter builds a gin engine serving the token API on opts.Endpoint.
// Callers may mount further routes on the returned engine.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Engine == nil {
		return nil, errNilEngine
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestContext())
	r.Use(loggingMiddleware(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(corsMiddleware(opts.CORSOrigins))
	}

	h := &handlers{engine: opts.Engine}
	r.POST(endpoint, h.login)
	r.GET(endpoint, h.info)
	r.PUT(endpoint, h.renew)
	r.DELETE(endpoint, h.logout)
	r.NoRoute(notFound)

	return r, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

// requestContext carries the client address, user agent and request id to
// the Engine for throttling and audit.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		ctx := couchjwt.WithRequestID(c.Request.Context(), id)
		ctx = couchjwt.WithClientIP(ctx, c.ClientIP())
		ctx = couchjwt.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func loggingMiddleware(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.Writer.Header().Get(RequestIDHeader),
		)
	}
}
