package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionLoginer renueva la sesión del servicio contra PharmaId.
type SessionLoginer interface {
	Login(ctx context.Context) error
}

// PharmaIDHandler permite a un operador renovar la credencial de PharmaId.
type PharmaIDHandler struct {
	logger   *zap.Logger
	sessions SessionLoginer
}

func NewPharmaIDHandler(logger *zap.Logger, sessions SessionLoginer) *PharmaIDHandler {
	return &PharmaIDHandler{logger: logger, sessions: sessions}
}

// Relogin maneja POST /pharmaid/session.
func (h *PharmaIDHandler) Relogin(c *gin.Context) {
	if err := h.sessions.Login(c.Request.Context()); err != nil {
		h.logger.Error("pharmaid relogin failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pharmaid login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "session_renewed"})
}
