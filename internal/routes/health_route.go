package routes

import (
	"net/http"

	"encore/commons/routes"
	"encore/internal/dto"
	"encore/internal/handler"

	"github.com/gin-gonic/gin"
)

func InitHealthRoutes(
	router *gin.Engine,
	deps routes.RouteDependencies,
	healthHandler *handler.HealthHandler,
) {
	apiV1 := routes.CreateAPIGroup(router, "v1")

	routes.RegisterRoute(
		apiV1,
		deps,
		routes.RouteOptions[dto.EmptyRequest, dto.HealthCheckResponse]{
			Path:        "/health",
			Method:      http.MethodGet,
			ServiceFunc: healthHandler.HealthService,
		},
	)
}
