package handler

import (
	"encoding/json"
	"net/http"

	"suratku-server/internal/domain"
	"suratku-server/internal/service"
	"suratku-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type LetterHandler struct {
	service  *service.LetterService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewLetterHandler(service *service.LetterService, logger *zap.Logger) *LetterHandler {
	return &LetterHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *LetterHandler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	institution, err := h.service.CreateInstitution(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, institution)
}

func (h *LetterHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	institution, err := h.service.GetInstitution(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, institution)
}

func (h *LetterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	letter, err := h.service.CreateLetter(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, letter)
}

// List accepts an optional institution_id filter.
func (h *LetterHandler) List(w http.ResponseWriter, r *http.Request) {
	letters, err := h.service.ListLetters(r.Context(), r.URL.Query().Get("institution_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, letters)
}

func (h *LetterHandler) Get(w http.ResponseWriter, r *http.Request) {
	letter, err := h.service.GetLetter(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, letter)
}
