package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/localedeals/localedeals/internal/errors"
)

// ErrorHandlerMiddleware renders the first error a handler attached via
// c.Error. Handlers never write error bodies themselves; they mark
// errors with a code and this middleware maps the code to a status and
// a safe response shape.
func ErrorHandlerMiddleware(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors[0].Err
	c.JSON(ierr.HTTPStatus(err), ierr.NewErrorResponse(err))
}
