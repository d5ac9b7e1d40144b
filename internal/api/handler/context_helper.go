package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"academy-portal/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenInfo 从上下文取登出所需的 Token ID 与过期时刻
func tokenInfo(c *gin.Context) (string, time.Time, bool) {
	id, ok := c.Get("token_id")
	if !ok {
		return "", time.Time{}, false
	}
	exp, ok := c.Get("token_expires_at")
	if !ok {
		return "", time.Time{}, false
	}
	idStr, ok1 := id.(string)
	expTime, ok2 := exp.(time.Time)
	if !ok1 || !ok2 {
		return "", time.Time{}, false
	}
	return idStr, expTime, true
}
