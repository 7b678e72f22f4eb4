package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/airchieve/airchieve_go_server/internal/pkg/response"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

// Admin 管理员校验中间件，必须挂在 Auth 之后
func Admin(userService *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		isAdmin, err := userService.IsAdmin(userID)
		if err != nil {
			response.ServerError(c, "")
			c.Abort()
			return
		}
		if !isAdmin {
			response.PermissionError(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
