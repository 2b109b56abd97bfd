package handlers

import (
	"net/http"

	"github.com/upb/users-api/services"
	"github.com/upb/users-api/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := services.GetErrorMessage(err)
	details := services.GetErrorDetails(err)

	var writeErr error
	switch {
	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, message)

	case services.IsForbiddenError(err), services.IsPolicyViolationError(err):
		// Policy violations carry the wait time when there is one
		remaining, _ := details[services.DetailRemainingTime].(string)
		seconds, _ := details[services.DetailRemainingSeconds].(int)
		writeErr = utils.WriteForbidden(w, message, remaining, seconds)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, nil)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, message)

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, message)
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}

	logger.Debug("handled service error",
		zap.String("type", string(services.GetErrorType(err))),
		zap.String("message", message))
}

// HandleValidationError answers a request that failed struct validation.
// The client sees message; offending fields go in details.
func HandleValidationError(w http.ResponseWriter, err error, message string, logger *zap.Logger) {
	var details map[string]interface{}
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}

	if err := utils.WriteBadRequest(w, message, details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
