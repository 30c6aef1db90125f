package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Identity 从网关注入的请求头里取用户标识放进上下文。
// 会话与令牌校验由外层网关负责，这里只做透传。
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if userID, err := strconv.ParseUint(raw, 10, 32); err == nil {
				c.Set("user_id", uint(userID))
			}
		}
		c.Next()
	}
}
