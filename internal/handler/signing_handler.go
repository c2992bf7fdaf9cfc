package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"suratku-server/internal/capture"
	"suratku-server/internal/domain"
	"suratku-server/internal/middleware"
	"suratku-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Signer is the part of the signing service the handlers use.
type Signer interface {
	Sign(ctx context.Context, letterID string, artifact *capture.Artifact, meta domain.RequestMeta) (*domain.SignResult, error)
	QRCode(ctx context.Context, letterID string) ([]byte, *domain.Letter, error)
}

// AuditLister lists recorded verification attempts of a letter.
type AuditLister interface {
	ListVerifications(ctx context.Context, letterID string) ([]*domain.VerificationRecord, error)
}

type SigningHandler struct {
	signer       Signer
	audit        AuditLister
	canvasWidth  int
	canvasHeight int
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewSigningHandler(signer Signer, audit AuditLister, canvasWidth, canvasHeight int, logger *zap.Logger) *SigningHandler {
	return &SigningHandler{
		signer:       signer,
		audit:        audit,
		canvasWidth:  canvasWidth,
		canvasHeight: canvasHeight,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Sign replays the submitted strokes on a server side pad, so the stored
// image is always rendered with the deployment's canvas and ink.
func (h *SigningHandler) Sign(w http.ResponseWriter, r *http.Request) {
	letterID := mux.Vars(r)["id"]

	var req domain.SignLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if (req.Width != 0 && req.Width != h.canvasWidth) || (req.Height != 0 && req.Height != h.canvasHeight) {
		response.UnprocessableEntity(w, fmt.Sprintf("Signature canvas must be %dx%d", h.canvasWidth, h.canvasHeight))
		return
	}

	pad, err := capture.NewPad(h.canvasWidth, h.canvasHeight)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Origin != nil {
		pad.SetOrigin(req.Origin.X, req.Origin.Y)
	}
	capture.Replay(pad, toCapturePoints(req.Strokes))

	artifact, err := pad.Finalize()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.signer.Sign(r.Context(), letterID, artifact, middleware.RequestMeta(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, result)
}

func (h *SigningHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	png, letter, err := h.signer.QRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.PNG(w, "qr-"+letter.ID+".png", png)
}

func (h *SigningHandler) Verifications(w http.ResponseWriter, r *http.Request) {
	records, err := h.audit.ListVerifications(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []*domain.VerificationRecord{}
	}

	response.Success(w, records)
}

func toCapturePoints(strokes [][]domain.Point) [][]capture.Point {
	out := make([][]capture.Point, len(strokes))
	for i, stroke := range strokes {
		out[i] = make([]capture.Point, len(stroke))
		for j, pt := range stroke {
			out[i][j] = capture.Point{X: pt.X, Y: pt.Y}
		}
	}
	return out
}
