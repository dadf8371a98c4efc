package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/service"
	"github.com/localedeals/localedeals/internal/types"
)

type UserHandler struct {
	userService service.UserService
	logger      *logger.Logger
}

func NewUserHandler(userService service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// DeleteMe removes everything the authenticated user owns. Called by
// the identity provider's account-deleted hook or the dashboard.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		h.logger.Errorw("failed to delete user data", "error", err, "user_id", userID)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ActionResponse{Message: "Account data deleted"})
}
