package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emergency-aid/internal/pharmaid"
	"emergency-aid/internal/service"
)

// PatientHandler expone el registro, la búsqueda y las prescripciones de pacientes.
type PatientHandler struct {
	logger        *zap.Logger
	patients      *service.PatientService
	prescriptions *service.PrescriptionService
}

func NewPatientHandler(logger *zap.Logger, patients *service.PatientService, prescriptions *service.PrescriptionService) *PatientHandler {
	return &PatientHandler{
		logger:        logger,
		patients:      patients,
		prescriptions: prescriptions,
	}
}

// RegisterPatient maneja POST /patients/new.
func (h *PatientHandler) RegisterPatient(c *gin.Context) {
	var req struct {
		FirstName   string `json:"first_name" binding:"required"`
		LastName    string `json:"last_name" binding:"required"`
		PhoneNumber string `json:"phone_number" binding:"required"`
		PharmaID    string `json:"pharma_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register patient request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	patient, err := h.patients.RegisterPatient(c.Request.Context(), service.RegisterPatientInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		PharmaID:    req.PharmaID,
	})
	if err != nil {
		h.writeError(c, "register patient failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patient": patient})
}

// SearchPatients maneja GET /patients/search?q=.
func (h *PatientHandler) SearchPatients(c *gin.Context) {
	patients, err := h.patients.SearchPatients(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, "search patients failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

// GetPatient maneja GET /patients/:patientId.
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patient, err := h.patients.GetPatient(c.Request.Context(), c.Param("patientId"))
	if err != nil {
		h.writeError(c, "get patient failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patient": patient})
}

// ViewPrescriptions maneja GET /patients/:patientId/pharmaid/view.
func (h *PatientHandler) ViewPrescriptions(c *gin.Context) {
	patientID := c.Param("patientId")
	prescriptions, err := h.prescriptions.GetPatientPrescriptions(c.Request.Context(), patientID)
	if err != nil {
		h.writeError(c, "view prescriptions failed", err)
		return
	}
	h.logger.Info("prescriptions viewed",
		zap.String("operator_id", OperatorID(c)),
		zap.String("patient_id", patientID),
		zap.Int("count", len(prescriptions)),
	)
	c.JSON(http.StatusOK, gin.H{"prescriptions": prescriptions})
}

func (h *PatientHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrPatientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPhoneNumberTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "phone number already registered"})
	case errors.Is(err, service.ErrAccessDenied):
		h.logger.Warn(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "cannot retrieve prescriptions right now"})
	case errors.Is(err, pharmaid.ErrAuthenticationFailure),
		errors.Is(err, pharmaid.ErrCredentialRejected):
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pharmaid session unavailable"})
	case errors.Is(err, pharmaid.ErrAccessRequestFailure),
		errors.Is(err, pharmaid.ErrFetchFailure):
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "pharmaid request failed"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
