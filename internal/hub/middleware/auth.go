// Package middleware provides gin middleware for the knowledge-hub service.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	huberrors "github.com/kart-io/knowledge-hub/pkg/errors"
)

// 上下文键。
const (
	ContextUserKey = "auth.user"
	ContextRoleKey = "auth.role"
)

// RoleAdmin 管理员角色，允许写操作。
const RoleAdmin = "admin"

// Claims 业务负载。单一 admin/非 admin 权限轴。
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig 认证中间件配置。
type AuthConfig struct {
	// Key HMAC 签名密钥。
	Key string
	// DisableAuth 跳过认证，仅用于本地开发。
	DisableAuth bool
}

// Auth 校验 Bearer token 并将身份写入请求上下文。
func Auth(cfg *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DisableAuth {
			c.Set(ContextUserKey, "dev")
			c.Set(ContextRoleKey, RoleAdmin)
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			abortWith(c, huberrors.ErrUnauthorized)
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, huberrors.ErrUnauthorized.WithMessagef("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Key), nil
		})
		if err != nil || !parsed.Valid {
			abortWith(c, huberrors.ErrUnauthorized)
			return
		}

		c.Set(ContextUserKey, claims.Subject)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin 只放行 admin 角色。必须在 Auth 之后使用。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRoleKey) != RoleAdmin {
			abortWith(c, huberrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortWith(c *gin.Context, e *huberrors.Errno) {
	c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{
		"code":    e.Code,
		"message": e.Message(c.GetHeader("Accept-Language")),
	})
}
