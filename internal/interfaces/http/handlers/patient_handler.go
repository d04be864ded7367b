package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medledger/claimguard/internal/application/registration"
	"github.com/medledger/claimguard/internal/domain/identity"
	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// Registrar is the registration use case consumed by the handler.
type Registrar interface {
	Register(ctx context.Context, in registration.Input) (*registration.Result, error)
}

// PatientDirectory is the read side for patient lookups.
type PatientDirectory interface {
	GetByID(ctx context.Context, id string) (*identity.Patient, error)
}

// PatientHandler serves patient registration and lookup.
type PatientHandler struct {
	registrar Registrar
	directory PatientDirectory
	logger    logging.Logger
}

// NewPatientHandler constructs the handler.
func NewPatientHandler(registrar Registrar, directory PatientDirectory, log logging.Logger) *PatientHandler {
	return &PatientHandler{registrar: registrar, directory: directory, logger: log}
}

type registerPatientRequest struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"nationalId"`
}

// Register handles POST /api/v1/patients.  A blocked registration answers
// 409 with the screening result so the caller can see why.
func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	res, err := h.registrar.Register(r.Context(), registration.Input{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		NationalID: req.NationalID,
	})
	if err != nil {
		if res != nil && res.Blocked {
			writeJSON(w, http.StatusConflict, res)
			return
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Get handles GET /api/v1/patients/{patientID}.
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patientID")
	p, err := h.directory.GetByID(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
