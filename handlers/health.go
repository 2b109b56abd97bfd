package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/users-api/app"
	"github.com/upb/users-api/utils"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// HealthCheck returns a simple health check handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadinessCheck reports whether the user store is reachable and, when
// auditing is enabled, whether its workers are still accepting events
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "ready"
		checks := map[string]string{}

		if deps.Store == nil {
			status = "not_ready"
			checks["store"] = "not_initialized"
		} else if err := deps.Store.HealthCheck(ctx); err != nil {
			status = "not_ready"
			checks["store"] = "unhealthy"
			deps.Logger.Error("store health check failed", zap.Error(err))
		} else {
			checks["store"] = "healthy"
		}

		if deps.AuditService != nil {
			stats := deps.AuditService.GetStats()
			switch {
			case !stats.Started:
				status = "not_ready"
				checks["audit"] = "stopped"
			case stats.PendingEvents >= stats.BufferSize:
				checks["audit"] = "saturated"
			default:
				checks["audit"] = "running"
			}
		} else {
			checks["audit"] = "disabled"
		}

		httpStatus := http.StatusOK
		if status != "ready" {
			httpStatus = http.StatusServiceUnavailable
		}

		_ = utils.WriteJSON(w, httpStatus, map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	}
}

// StatusHandler returns application status information
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"version":     Version,
			"environment": "",
			"store":       "",
			"auth":        deps.AuthMiddleware != nil,
		}
		if deps.Config != nil {
			response["environment"] = deps.Config.Environment
			response["store"] = deps.Config.Store.Driver
		}

		_ = utils.WriteJSON(w, http.StatusOK, response)
	}
}
