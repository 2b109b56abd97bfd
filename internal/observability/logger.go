package observability

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// FromRequest returns a logger annotated with the request ID chi assigned to r.
func FromRequest(r *http.Request, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestID := chimw.GetReqID(r.Context()); requestID != "" {
		return logger.With(zap.String("request_id", requestID))
	}
	return logger
}

// NewLogger builds a zap logger for the given level and format (json or console).
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	return cfg.Build()
}
