package routes

import (
	"net/http"

	"encore/commons/routes"
	"encore/internal/dto"
	"encore/internal/handler"

	"github.com/gin-gonic/gin"
)

func InitJobRoutes(
	router *gin.Engine,
	deps routes.RouteDependencies,
	jobHandler *handler.JobHandler,
) {
	jobs := routes.CreateAPIGroup(router, "v1").Group("/jobs")

	// GET /api/v1/jobs - List job definitions with live state
	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.JobListResponse]{
		Path:        "",
		Method:      http.MethodGet,
		ServiceFunc: jobHandler.ListJobsService,
	})

	// POST /api/v1/jobs/reload - Rebuild the schedule from the store
	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.ReloadResponse]{
		Path:        "/reload",
		Method:      http.MethodPost,
		ServiceFunc: jobHandler.ReloadService,
	})

	// GET /api/v1/jobs/:job_id
	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.JobResponse]{
		Path:        "/:job_id",
		Method:      http.MethodGet,
		ServiceFunc: jobHandler.GetJobService,
	})

	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.JobResponse]{
		Path:        "/:job_id/enable",
		Method:      http.MethodPost,
		ServiceFunc: jobHandler.EnableJobService,
	})

	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.JobResponse]{
		Path:        "/:job_id/disable",
		Method:      http.MethodPost,
		ServiceFunc: jobHandler.DisableJobService,
	})

	// PUT /api/v1/jobs/:job_id/schedule - Replace the cron expression
	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.UpdateScheduleRequest, dto.JobResponse]{
		Path:        "/:job_id/schedule",
		Method:      http.MethodPut,
		ServiceFunc: jobHandler.UpdateScheduleService,
	})

	// POST /api/v1/jobs/:job_id/run - Run now, outside the schedule
	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.TriggerJobResponse]{
		Path:        "/:job_id/run",
		Method:      http.MethodPost,
		ServiceFunc: jobHandler.TriggerJobService,
	})

	// GET /api/v1/jobs/:job_id/runs?limit=N - Recent run history
	routes.RegisterRoute(jobs, deps, routes.RouteOptions[dto.EmptyRequest, dto.RunListResponse]{
		Path:        "/:job_id/runs",
		Method:      http.MethodGet,
		ServiceFunc: jobHandler.ListRunsService,
	})
}
