package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"emergency-aid/internal/service"
)

const (
	authClaimsKey = "auth_claims"
	operatorIDKey = "operator_id"
)

// JWTAuthMiddleware exige un access token de operador y deja sus claims y su
// id en el contexto. Los refresh tokens no sirven para acceder a pacientes.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "missing operator token")
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, service.ErrJWTExpired) {
				unauthorized(c, "operator token expired")
				return
			}
			unauthorized(c, "invalid operator token")
			return
		}

		c.Set(authClaimsKey, claims)
		c.Set(operatorIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="emergency-aid"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// OperatorID devuelve el id del operador autenticado, o "" en rutas públicas.
func OperatorID(c *gin.Context) string {
	return c.GetString(operatorIDKey)
}
