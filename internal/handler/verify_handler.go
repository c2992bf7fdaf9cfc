package handler

import (
	"context"
	"net/http"

	"suratku-server/internal/domain"
	"suratku-server/internal/middleware"
	"suratku-server/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Verifier interface {
	Verify(ctx context.Context, letterID string, claimedHash *string, meta domain.RequestMeta) (*domain.VerificationResult, error)
}

// VerifyHandler serves the public verification endpoint scanned from QR
// codes. It needs no authentication.
type VerifyHandler struct {
	verifier Verifier
	logger   *zap.Logger
}

func NewVerifyHandler(verifier Verifier, logger *zap.Logger) *VerifyHandler {
	return &VerifyHandler{
		verifier: verifier,
		logger:   logger,
	}
}

func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	letterID := mux.Vars(r)["letterId"]

	var claimed *string
	if q := r.URL.Query(); q.Has("hash") {
		v := q.Get("hash")
		claimed = &v
	}

	result, err := h.verifier.Verify(r.Context(), letterID, claimed, middleware.RequestMeta(r))
	if err != nil {
		h.logger.Warn("verification failed", zap.String("letter_id", letterID), zap.Error(err))
	}
	if result == nil {
		response.ServiceUnavailable(w, "Verification is temporarily unavailable, try again")
		return
	}

	switch result.State {
	case domain.VerificationValid:
		response.Result(w, http.StatusOK, "Letter is authentic", result)
	case domain.VerificationInvalid:
		response.Result(w, http.StatusOK, "Letter could not be verified", result)
	case domain.VerificationNotFound:
		response.Result(w, http.StatusNotFound, "Letter not found", result)
	default:
		response.Result(w, http.StatusServiceUnavailable, "Verification is temporarily unavailable, try again", result)
	}
}
