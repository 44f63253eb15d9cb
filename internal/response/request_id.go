package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// contextKeyLogger holds the request-scoped logger.
const contextKeyLogger = "logger"

// RequestIDMiddleware generates a unique request ID for every request and
// attaches a logger tagged with it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Set(contextKeyLogger, log.With().Str("request_id", reqID).Logger())
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

// Logger returns the request-scoped logger, or the global one outside
// RequestIDMiddleware.
func Logger(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(contextKeyLogger); ok {
		if l, ok := v.(zerolog.Logger); ok {
			return &l
		}
	}
	l := log.Logger
	return &l
}
