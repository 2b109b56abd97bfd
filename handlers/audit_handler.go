package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/users-api/app"
	"github.com/upb/users-api/internal/observability"
	"github.com/upb/users-api/models"
	"github.com/upb/users-api/services"
	"github.com/upb/users-api/utils"
	"go.uber.org/zap"
)

const defaultAuditLimit = 50

// AuditQuery pages through a user's audit trail
type AuditQuery struct {
	Limit int `query:"limit" validate:"min=1,max=500"`
}

// UserAuditHandler handles GET /api/v1/users/{id}/audit.
// Entries come back newest first.
func UserAuditHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.FromRequest(r, deps.Logger)

		userID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			HandleServiceError(w, services.ErrInvalidUserID, logger)
			return
		}

		query := AuditQuery{Limit: defaultAuditLimit}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				HandleServiceError(w, services.ErrInvalidLimit, logger)
				return
			}
			query.Limit = limit
		}
		if err := utils.ValidateStruct(&query); err != nil {
			HandleValidationError(w, err, services.ErrInvalidLimit.Message, logger)
			return
		}

		logs, err := deps.AuditLogs.GetByResourceID(r.Context(), userID, query.Limit)
		if err != nil {
			logger.Error("failed to read audit logs",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			HandleServiceError(w, services.WrapInternal(err), logger)
			return
		}
		if logs == nil {
			logs = []*models.AuditLog{}
		}

		if err := utils.WriteJSON(w, http.StatusOK, logs); err != nil {
			logger.Error("failed to write audit response", zap.Error(err))
		}
	}
}
