// Package http is the admin REST surface of the bot.
package http

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	_ "github.com/open-builders/giveaway-bot/internal/http/docs"
	"github.com/open-builders/giveaway-bot/internal/http/middleware"
	"github.com/open-builders/giveaway-bot/internal/metrics"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Giveaways GiveawayService
	Lists     dg.Lists
	Metrics   *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Checks         []Check

	AdminToken  string
	CORSOrigins string
	Debug       bool
}

// @title                       Giveaway Bot API
// @version                     1.0
// @description                 Admin API for the Discord giveaway bot.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  AdminToken
// @in                          header
// @name                        Authorization
// @description                 "Bearer <ADMIN_TOKEN>"

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if !d.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Metrics))
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	router.GET("/health", health)
	router.GET("/live", live)
	router.GET("/ready", ready(d.Checks))
	if d.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1", middleware.RequireAdminToken(d.AdminToken))
	NewGiveawayHandlers(d.Giveaways).Register(v1)
	NewListsHandlers(d.Lists).Register(v1)

	return router
}

func corsConfig(origins string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}

	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
	}
	return cfg
}
