package handler

import (
	"encore/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestIo carries the decoded request into a ServiceFunc
type RequestIo[T any] struct {
	Body        T
	RawBody     []byte
	PathParams  map[string]string
	QueryParams map[string]string
}

type HandlerDependencies struct {
	Logger logger.Logger
}

func BuildRequestIo[T any](c *gin.Context) *RequestIo[T] {
	return &RequestIo[T]{
		PathParams:  extractPathParams(c),
		QueryParams: extractQueryParams(c),
	}
}

// PathParam returns a path parameter, empty when absent
func (r *RequestIo[T]) PathParam(key string) string {
	return r.PathParams[key]
}

// QueryParam returns the first value of a query parameter, empty when absent
func (r *RequestIo[T]) QueryParam(key string) string {
	return r.QueryParams[key]
}

func extractPathParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for _, param := range c.Params {
		params[param.Key] = param.Value
	}
	return params
}

func extractQueryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
