// Package http implements the HTTP transport layer of the application.
// It provides middleware, route handlers, and request/response utilities
// for the REST API. Logging, tracing, panic recovery, and rate limiting are
// handled at this layer before requests are forwarded to the service layer.
package http

import (
	"github.com/moonsync/moonsync-server/internal/config"
	"github.com/moonsync/moonsync-server/internal/logger"
	"github.com/moonsync/moonsync-server/internal/service"
)

type Handler struct {
	services *service.Services
	cfg      config.Server
	maxBody  int64

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.Server, maxDeltaSize int64, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		cfg:      cfg,
		maxBody:  requestBodyLimit(maxDeltaSize),
		logger:   logger,
	}
}

// requestBodyLimit converts the delta size cap into an HTTP body cap,
// leaving headroom for the base64 expansion and the JSON envelope.
func requestBodyLimit(maxDeltaSize int64) int64 {
	if maxDeltaSize <= 0 {
		return 0
	}

	return maxDeltaSize*4/3 + 4096
}
