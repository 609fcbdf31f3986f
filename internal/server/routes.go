package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/silogic/edactl/internal/auth"
	"github.com/silogic/edactl/internal/flow"
	"github.com/silogic/edactl/internal/invoke"
	"github.com/silogic/edactl/internal/locate"
)

// RegisterRoutes wires the health endpoints and the authenticated v1
// API onto the daemon's router.
func (d *Daemon) RegisterRoutes() {
	routes := d.routes()
	routes.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(d.Appeared).String(),
			"service": "edad",
			"version": version,
		})
	})

	routes.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(d.Appeared).String(),
			"service": "edad",
			"version": version,
		})
	})

	routes.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := d.group("/v1")
	api.Use(d.authorize())
	api.GET("/tools", d.handleTools)
	api.POST("/synthesis", d.handleSynthesis)
	api.POST("/pnr", d.handlePlaceRoute)
	api.POST("/flow", d.handleFlow)
}

// authorize gates a request on the configured API token. Without a
// configured token the daemon is open.
func (d *Daemon) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if d.token == nil {
			c.Next()
			return
		}
		token := auth.FromHeader(c.GetHeader("Authorization"))
		if token == "" {
			token = c.GetHeader("X-API-Token")
		}
		if err := d.token.Validate(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (d *Daemon) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": d.engine.Tools(c.Request.Context())})
}

func (d *Daemon) handleSynthesis(c *gin.Context) {
	var job flow.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := d.engine.Synthesize(c.Request.Context(), job)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (d *Daemon) handlePlaceRoute(c *gin.Context) {
	var job flow.PnRJob
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if job.GUI {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gui runs are interactive, use the cli"})
		return
	}

	res, err := d.engine.PlaceAndRoute(c.Request.Context(), job)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (d *Daemon) handleFlow(c *gin.Context) {
	var job flow.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := d.engine.Run(c.Request.Context(), job, false)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.Is(err, locate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, invoke.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
