package handler

import (
	"errors"
	"net/http"

	"suratku-server/internal/capture"
	"suratku-server/internal/service"
	"suratku-server/pkg/hash"
	"suratku-server/pkg/response"

	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var transportErr *service.TransportError

	switch {
	case errors.Is(err, capture.ErrEmptyArtifact):
		response.UnprocessableEntity(w, "Signature is empty, draw a signature first")
	case errors.Is(err, hash.ErrInvalidInput):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, service.ErrLetterNotFound):
		response.NotFound(w, "Letter not found")
	case errors.Is(err, service.ErrInstitutionNotFound):
		response.NotFound(w, "Institution not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, service.ErrAlreadySigned):
		response.Conflict(w, "Letter is already signed")
	case errors.Is(err, service.ErrNotSigned):
		response.Conflict(w, "Letter is not signed yet")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(w, "Email already registered")
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, hash.ErrPasswordTooShort):
		response.BadRequest(w, hash.ErrPasswordTooShort.Error())
	case errors.As(err, &transportErr):
		logger.Error("store unavailable", zap.Error(err))
		response.ServiceUnavailable(w, "Storage temporarily unavailable, try again")
	default:
		logger.Error("unhandled error", zap.Error(err))
		response.InternalError(w, "Internal server error")
	}
}
