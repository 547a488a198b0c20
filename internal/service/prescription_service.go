package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"emergency-aid/internal/domain"
	"emergency-aid/internal/pharmaid"
)

// ErrAccessDenied indica que PharmaId no creó el permiso VIEW; se puede
// reintentar más tarde.
var ErrAccessDenied = errors.New("unable to obtain view access for prescriptions")

// PatientGetter resuelve un paciente por su identificador interno.
type PatientGetter interface {
	GetPatient(ctx context.Context, id string) (domain.Patient, error)
}

// PrescriptionService obtiene las prescripciones de un paciente desde PharmaId.
type PrescriptionService struct {
	logger        *zap.Logger
	patients      PatientGetter
	access        pharmaid.AccessRequester
	prescriptions pharmaid.PrescriptionFetcher
}

func NewPrescriptionService(logger *zap.Logger, patients PatientGetter, access pharmaid.AccessRequester, prescriptions pharmaid.PrescriptionFetcher) *PrescriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrescriptionService{
		logger:        logger,
		patients:      patients,
		access:        access,
		prescriptions: prescriptions,
	}
}

// GetPatientPrescriptions pide acceso en cada llamada y recién entonces busca
// las prescripciones. Sin cuenta PharmaId vinculada devuelve una lista vacía.
func (s *PrescriptionService) GetPatientPrescriptions(ctx context.Context, patientID string) ([]domain.Prescription, error) {
	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !patient.HasPharmaID() {
		return []domain.Prescription{}, nil
	}
	pharmaID := *patient.PharmaID

	granted, err := s.access.RequestViewAccess(ctx, pharmaID)
	if err != nil {
		return nil, err
	}
	if !granted {
		s.logger.Warn("pharmaid view access not granted", zap.String("patient_id", patientID), zap.String("pharma_id", pharmaID))
		return nil, fmt.Errorf("%w: pharma id %s", ErrAccessDenied, pharmaID)
	}

	prescriptions, err := s.prescriptions.FetchPrescriptions(ctx, pharmaID)
	if err != nil {
		return nil, err
	}
	if prescriptions == nil {
		prescriptions = []domain.Prescription{}
	}
	return prescriptions, nil
}
