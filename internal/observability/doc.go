// Package observability provides request-scoped structured logging on top of zap.
package observability
