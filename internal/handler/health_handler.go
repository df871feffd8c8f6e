package handler

import (
	"context"

	"encore/commons/error_handler"
	"encore/commons/handler"
	"encore/internal/dto"
	"encore/internal/logger"
	"encore/internal/service"
)

type HealthHandler struct {
	scheduler   service.IScheduler
	logger      logger.Logger
	serviceName string
}

func NewHealthHandler(scheduler service.IScheduler, log logger.Logger, serviceName string) *HealthHandler {
	return &HealthHandler{
		scheduler:   scheduler,
		logger:      log.With(logger.String("component", "health_handler")),
		serviceName: serviceName,
	}
}

func (h *HealthHandler) HealthService(
	ctx context.Context,
	ioutil *handler.RequestIo[dto.EmptyRequest],
) (dto.HealthCheckResponse, *error_handler.ErrorCollection) {
	h.logger.Debug("health check requested")

	return dto.HealthCheckResponse{
		Status:     "healthy",
		Service:    h.serviceName,
		ActiveJobs: len(h.scheduler.ListActive()),
	}, nil
}
