package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trainhub/backend/internal/domain/identity"
	"github.com/trainhub/backend/internal/infrastructure/logger"
	"github.com/trainhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for capability middleware
type PermissionConfig struct {
	Logger *zap.Logger
	// OnDenied replaces the default 401/403 response
	OnDenied func(c *gin.Context, required []identity.Capability)
}

// RequireCapability requires the caller to hold every capability listed
func RequireCapability(caps ...identity.Capability) gin.HandlerFunc {
	return RequireCapabilityWithConfig(PermissionConfig{}, caps...)
}

// RequireCapabilityWithConfig is RequireCapability with custom config
func RequireCapabilityWithConfig(cfg PermissionConfig, caps ...identity.Capability) gin.HandlerFunc {
	return capabilityCheck(cfg, caps, func(a identity.Actor) bool { return a.Can(caps...) })
}

// RequireAnyCapability requires the caller to hold at least one capability listed
func RequireAnyCapability(caps ...identity.Capability) gin.HandlerFunc {
	return capabilityCheck(PermissionConfig{}, caps, func(a identity.Actor) bool { return a.CanAny(caps...) })
}

func capabilityCheck(cfg PermissionConfig, caps []identity.Capability, allowed func(identity.Actor) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(logger.GinRequestIDKey),
			))
			return
		}
		if !allowed(actor) {
			handlePermissionDenied(c, cfg, actor, caps)
			return
		}
		c.Next()
	}
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, actor identity.Actor, required []identity.Capability) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		c.Abort()
		return
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetGinLogger(c)
	}
	log.Warn("Capability check failed",
		zap.String("user_id", actor.UserID.String()),
		zap.Strings("required", capabilityStrings(required)),
		zap.String("path", c.FullPath()),
	)

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden, "Access denied", c.GetString(logger.GinRequestIDKey),
	))
}

func capabilityStrings(caps []identity.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
