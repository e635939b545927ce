package routes

import (
	"log"
	"os"

	"github.com/Vaibhavsh0120/Connect2Give/internal/core/container"
	"github.com/Vaibhavsh0120/Connect2Give/internal/middleware"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterPublicRoutes(router *gin.Engine, container *container.Container) {
	container.LoginHandler.RegisterRoutes(router)
	container.UserHandler.RegisterPublicRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, container *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware())

	container.UserHandler.RegisterRoutes(protectedRoutes)
	container.DonationHandler.RegisterRoutes(protectedRoutes)
	container.CampHandler.RegisterRoutes(protectedRoutes)
	container.RouteHandler.RegisterRoutes(protectedRoutes)
	container.TrackingHandler.RegisterRoutes(protectedRoutes)
	container.VolunteerHandler.RegisterRoutes(protectedRoutes)
}

func RegisterUtilityRoutes(router *gin.Engine) {
	router.GET("/health", middleware.HealthCheckMiddleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	openapiFilePath := "./docs/index.html"
	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(c *gin.Context) {
			c.File(openapiFilePath)
		})
		log.Println("Route docs/index.html registered successfully.")
	} else {
		log.Printf("Warning: %s not found. Route /openapi.html will not be registered.\n", openapiFilePath)
	}
}
