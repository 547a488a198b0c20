package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emergency-aid/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	patientH *PatientHandler,
	pharmaH *PharmaIDHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/hello", Hello)
	r.POST("/register", userH.Register)
	r.POST("/login", userH.Login)
	r.POST("/auth/refresh", userH.RefreshToken)

	protected := r.Group("", JWTAuthMiddleware(jwtSvc))
	protected.POST("/auth/logout", userH.Logout)

	patients := protected.Group("/patients")
	patients.POST("/new", patientH.RegisterPatient)
	patients.GET("/search", patientH.SearchPatients)
	patients.GET("/:patientId", patientH.GetPatient)
	patients.GET("/:patientId/pharmaid/view", patientH.ViewPrescriptions)

	protected.POST("/pharmaid/session", pharmaH.Relogin)

	return r
}

// Hello maneja GET /hello.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "hello"})
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if operatorID := OperatorID(c); operatorID != "" {
			fields = append(fields, zap.String("operator_id", operatorID))
		}
		logger.Info("request", fields...)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
