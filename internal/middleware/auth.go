package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"insproduce-backend/internal/config"
	"insproduce-backend/internal/models"
)

const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"

	// LegacyTokenHeader is the header older clients send the bare token in.
	LegacyTokenHeader = "x-auth-token"
)

const (
	RoleAdmin     = "admin"
	RoleInspector = "inspector"
)

// AuthMiddleware verifies an HS256 token and stores the caller's id and role.
// Claims are read as {id, role} or the older nested {user: {id, role}}.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: msg})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if cfg.JWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			message := "token is invalid"
			if err != nil && strings.Contains(err.Error(), "token is expired") {
				message = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token", Message: message})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid token claims"})
			return
		}

		id, role := identity(claims)
		if id == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "invalid token claims",
				Message: "token must carry a user id and role",
			})
			return
		}

		c.Set(UserIDKey, id)
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated role is
// one of roles. It must run after AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(r)] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(UserRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "forbidden",
				Message: fmt.Sprintf("role %s may not perform this action", role),
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func extractToken(c *gin.Context) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "invalid authorization header format"
		}
		return strings.TrimSpace(parts[1]), "empty token"
	}
	if legacy := strings.TrimSpace(c.GetHeader(LegacyTokenHeader)); legacy != "" {
		return legacy, ""
	}
	return "", "missing authorization header"
}

func identity(claims jwt.MapClaims) (string, string) {
	source := map[string]interface{}(claims)
	if nested, ok := claims["user"].(map[string]interface{}); ok {
		source = nested
	}
	role := claimString(source["role"])
	if role == "" {
		role = claimString(source["rol"])
	}
	return claimString(source["id"]), strings.ToLower(role)
}

func claimString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}
