package gateway

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bizmatters/world-oracle/docs" // swagger docs
)

// NewRouter wires the gateway routes and middleware.
// staticDir is served for unmatched GET requests when it exists.
func NewRouter(handler *Handler, socket *EvolveSocket, staticDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(StructuredLogging())
	router.Use(CORS())

	router.GET("/health", handler.Health)
	router.POST("/evolve", handler.Evolve)
	router.GET("/ws/evolve", socket.Stream)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if static := StaticFiles(staticDir); static != nil {
		log.Printf(`{"level":"info","message":"Serving static files","dir":%q}`, staticDir)
		router.NoRoute(static)
	} else {
		router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		})
	}

	return router
}
