package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/localedeals/localedeals/internal/types"
)

// RequestIDMiddleware attaches a request id to the context and response.
// An id supplied by the caller is kept so ids correlate across services.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateULIDWithPrefix(types.IDPrefixRequest)
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)
	c.Next()
}
