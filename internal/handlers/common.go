// Package handlers provides the HTTP handlers of the meme market.
package handlers

import (
	"encoding/json"
	"net/http"

	"cybermeme-backend/internal/middleware"
	"cybermeme-backend/pkg/api"
	appErrors "cybermeme-backend/pkg/errors"

	"go.uber.org/zap"
)

// Banner is the plain-text body of GET /.
const Banner = "Cybermeme Market: Neon chaos awaits!"

const msgInvalidBody = "Invalid request body"

// maxBodyBytes caps request bodies; every payload here is a handful of fields.
const maxBodyBytes = 1 << 20

// handleServiceError converts service errors to appropriate HTTP responses.
// Only the client-facing message is sent; upstream details stay in the log.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	fields := []zap.Field{
		zap.String("requestID", middleware.GetRequestIDFromRequest(r)),
		zap.Error(err),
	}

	message := appErrors.MessageOf(err)
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeUnauthorized:
		logger.Debug("Unknown handle", fields...)
		api.Error(w, http.StatusUnauthorized, message)
	case appErrors.ErrorTypeValidation:
		logger.Debug("Validation error", fields...)
		api.Error(w, http.StatusBadRequest, message)
	case appErrors.ErrorTypeNotFound:
		logger.Debug("Not found", fields...)
		api.Error(w, http.StatusNotFound, message)
	default:
		logger.Error("Internal error", fields...)
		if message == "" {
			message = "Server glitch"
		}
		api.Error(w, http.StatusInternalServerError, message)
	}
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Error(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}
