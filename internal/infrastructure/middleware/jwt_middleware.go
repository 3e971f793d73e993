package middleware

import (
	"strconv"
	"strings"

	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// abort 以统一响应结构终止请求
func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(errorx.HTTPStatus(code), gin.H{
		"success": false,
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}

// bearerToken 优先取 Authorization 头，WebSocket 握手无法带头时取 ?token=
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户 ID、角色存入上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, errorx.CodeUnauthorized, errorx.ErrUnauthorized.Msg)
			return
		}

		claims, err := jwt.ParseToken(token)
		if err != nil {
			abort(c, errorx.CodeUnauthorized, "Token 已过期或无效，请重新登录")
			return
		}
		if claims.Subject != jwt.SubjectAccess {
			abort(c, errorx.CodeUnauthorized, "请使用 Access Token 访问此接口")
			return
		}
		userID, err := strconv.ParseUint(claims.UserID, 10, 64)
		if err != nil || userID == 0 {
			abort(c, errorx.CodeUnauthorized, "Token 用户信息无效")
			return
		}

		c.Set(constants.CtxUserID, uint(userID))
		c.Set(constants.CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRoles 角色校验，必须挂在 JWTAuth 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[CurrentRole(c)]; !ok {
			abort(c, errorx.CodeForbidden, errorx.ErrForbidden.Msg)
			return
		}
		c.Next()
	}
}

// CurrentUserID 当前登录用户 ID，未登录为 0
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(constants.CtxUserID)
}

// CurrentRole 当前登录用户角色
func CurrentRole(c *gin.Context) string {
	return c.GetString(constants.CtxRole)
}
