package api

import (
	"github.com/gin-gonic/gin"

	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/database"
)

// RegisterRoutes mounts the /v1 API. Reads need any signed-in account whose
// password is settled; writes additionally need ADMIN.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	authHandler := NewAuthHandler(deps.Users, deps.Tokens, deps.Revoker, deps.Limiter, cfg.Auth.CookieDomain)
	userHandler := NewUserHandler(deps.Users)
	contentHandler := NewContentHandler(deps.Contents)
	formHandler := NewFormHandler(deps.Forms)
	mediaHandler := NewMediaHandler(deps.Media, UploadLimits{
		MaxBytes:      cfg.Upload.MaxBytes,
		AllowedTypes:  cfg.Upload.MIMEWhitelist(),
		PresignExpiry: cfg.Upload.PresignExpiry,
	}, deps.Scanner)
	seoHandler := NewSEOHandler(deps.SEOs)

	authenticated := middleware.Authenticate(deps.Tokens)
	settled := middleware.RequirePasswordChangeCompleted()
	admin := middleware.RequireRoles(database.RoleAdmin)

	v1 := router.Group("/v1")

	if deps.Feed != nil {
		feedHandler := NewChangeFeedHandler(deps.Feed, deps.Tokens, deps.Logger, cfg.API.Origins())
		v1.GET("/ws", feedHandler.Serve)
	}

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authenticated, authHandler.Logout)
		authGroup.POST("/change-password", authenticated, authHandler.ChangePassword)
		authGroup.GET("/me", authenticated, authHandler.Me)
	}

	// public lookup by canonical URL
	v1.GET("/seos/:url", seoHandler.GetByURL)

	protected := v1.Group("")
	protected.Use(authenticated, settled)

	users := protected.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", admin, userHandler.Create)
		users.PUT("/:id", admin, userHandler.Update)
		users.DELETE("/:id", admin, userHandler.Delete)
	}

	contents := protected.Group("/contents")
	{
		contents.GET("", contentHandler.List)
		contents.GET("/:id", contentHandler.Get)
		contents.POST("", admin, contentHandler.Create)
		contents.PUT("/:id", admin, contentHandler.Update)
		contents.DELETE("/:id", admin, contentHandler.Delete)
	}

	forms := protected.Group("/forms")
	{
		forms.GET("", formHandler.List)
		forms.GET("/:id", formHandler.Get)
		forms.POST("", admin, formHandler.Create)
		forms.PUT("/:id", admin, formHandler.Update)
		forms.DELETE("/:id", admin, formHandler.Delete)
	}

	medias := protected.Group("/medias")
	{
		medias.GET("", mediaHandler.List)
		medias.GET("/:id", mediaHandler.Get)
		medias.GET("/:id/link", mediaHandler.Link)
		medias.POST("", admin, mediaHandler.Upload)
		medias.POST("/upload", admin, mediaHandler.Upload)
		medias.PUT("/:id", admin, mediaHandler.Update)
		medias.DELETE("/:id", admin, mediaHandler.Delete)
	}

	seos := protected.Group("/seos")
	{
		seos.GET("", seoHandler.List)
		// /seos/:url is taken by the public lookup
		seos.GET("/id/:id", seoHandler.Get)
		seos.POST("", admin, seoHandler.Upsert)
		seos.PUT("/:id", admin, seoHandler.Update)
		seos.DELETE("/:id", admin, seoHandler.Delete)
	}
}
