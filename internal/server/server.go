// Package server exposes flow operations over HTTP for remote callers
// and dashboards.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/auth"
	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/flow"
	"github.com/silogic/edactl/internal/observability"
)

const version = "0.1.0"

// Daemon serves the HTTP API over one flow engine. An API token in the
// configuration gates every /v1 route.
type Daemon struct {
	Addr     string
	Appeared time.Time

	engine   *flow.Engine
	token    auth.Validator
	router   *gin.Engine
	basePath string
}

// New builds a daemon with its own router and middleware chain.
func New(cfg config.Config) *Daemon {
	cfg = cfg.WithDefaults()
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware("edad"))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.HTTP.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-API-Token"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	d := &Daemon{
		Addr:     cfg.HTTP.Addr,
		Appeared: time.Now(),
		engine:   flow.NewEngine(cfg),
		router:   r,
	}
	if cfg.HTTP.APIToken != "" {
		d.token = auth.StaticToken{Token: cfg.HTTP.APIToken}
	}
	return d
}

// Attach mounts the API on an existing router under basePath instead
// of owning one. The caller keeps responsibility for serving.
func Attach(engine *flow.Engine, router *gin.Engine, basePath string) *Daemon {
	return &Daemon{
		Appeared: time.Now(),
		engine:   engine,
		router:   router,
		basePath: basePath,
	}
}

func (d *Daemon) HTTPRouter() *gin.Engine {
	return d.router
}

// Serve registers the routes and blocks on the listener.
func (d *Daemon) Serve() error {
	d.RegisterRoutes()
	log.Info().Str("addr", d.Addr).Msg("daemon listening")
	return d.router.Run(d.Addr)
}

func (d *Daemon) routes() gin.IRoutes {
	if d.basePath == "" {
		return d.router
	}
	return d.router.Group(d.basePath)
}

func (d *Daemon) group(relative string) *gin.RouterGroup {
	if d.basePath == "" {
		return d.router.Group(relative)
	}
	return d.router.Group(d.basePath + relative)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
