package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// UserContextMiddleware copies the authenticated user id from the
// gateway-verified header into the request context. The edge verifies
// the session token; this service trusts the header it forwards.
func UserContextMiddleware(c *gin.Context) {
	if userID := c.GetHeader(types.HeaderUserID); userID != "" {
		ctx := context.WithValue(c.Request.Context(), types.CtxUserID, userID)
		c.Request = c.Request.WithContext(ctx)
	}
	c.Next()
}

// RequireAuthMiddleware rejects requests with no authenticated user.
func RequireAuthMiddleware(c *gin.Context) {
	if types.GetUserID(c.Request.Context()) == "" {
		err := ierr.NewError("missing authentication").
			WithHint("Sign in to access this resource").
			Mark(ierr.ErrPermissionDenied)
		c.AbortWithStatusJSON(http.StatusUnauthorized, ierr.NewErrorResponse(err))
		return
	}
	c.Next()
}
