package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sealbox/sealbox/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Files         *FileHandler
	Grants        *GrantHandler
	Access        *AccessHandler
	JWTSecret     []byte
	AnomalyWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/files", deps.Files.Upload)
	authGroup.GET("/files", deps.Files.List)
	authGroup.DELETE("/files/:id", deps.Files.Delete)

	authGroup.POST("/files/:id/grants", deps.Grants.Create)
	authGroup.GET("/files/:id/grants", deps.Grants.List)
	authGroup.GET("/files/:id/audit", deps.Grants.FileAudit)
	authGroup.DELETE("/grants/:id", deps.Grants.Revoke)
	authGroup.GET("/grants/:id/audit", deps.Grants.Audit)

	anomalyWindow := deps.AnomalyWindow
	if anomalyWindow <= 0 {
		anomalyWindow = 5 * time.Second
	}
	api.POST("/public/access/:token", deps.Access.Resolve)
	api.GET("/public/access/:token/content", deps.Access.Content)
	api.POST("/public/access/:token/events", middleware.RateLimit(anomalyWindow), deps.Access.ReportAnomaly)
}
