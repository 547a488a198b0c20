package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"emergency-aid/internal/domain"
	"emergency-aid/internal/repository"
)

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrPhoneNumberTaken = errors.New("phone number already registered")

	ErrValidation         = errors.New("validation error")
	ErrInvalidPatientID   = fmt.Errorf("%w: invalid patient id format", ErrValidation)
	ErrInvalidPhoneNumber = fmt.Errorf("%w: phone number must be 10 digits with dash separators", ErrValidation)
	ErrInvalidFirstName   = fmt.Errorf("%w: first name is not a valid format", ErrValidation)
	ErrInvalidLastName    = fmt.Errorf("%w: last name is not a valid format", ErrValidation)
)

// PatientService coordina el alta, lectura y búsqueda de pacientes.
type PatientService struct {
	logger   *zap.Logger
	patients repository.PatientRepository
}

func NewPatientService(logger *zap.Logger, patients repository.PatientRepository) *PatientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientService{
		logger:   logger,
		patients: patients,
	}
}

type RegisterPatientInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	PharmaID    string
}

// RegisterPatient valida los datos antes de persistir. Un PharmaID vacío se
// guarda como ausente.
func (s *PatientService) RegisterPatient(ctx context.Context, input RegisterPatientInput) (domain.Patient, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	phoneNumber := strings.TrimSpace(input.PhoneNumber)
	pharmaID := strings.TrimSpace(input.PharmaID)

	if !isPhoneNumber(phoneNumber) {
		return domain.Patient{}, ErrInvalidPhoneNumber
	}
	if !isSingleName(firstName) {
		return domain.Patient{}, ErrInvalidFirstName
	}
	if !isSingleName(lastName) {
		return domain.Patient{}, ErrInvalidLastName
	}

	patient := domain.Patient{
		ID:          uuid.NewString(),
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now().UTC(),
	}
	if pharmaID != "" {
		patient.PharmaID = &pharmaID
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Patient{}, ErrPhoneNumberTaken
		}
		return domain.Patient{}, err
	}
	s.logger.Info("patient registered", zap.String("patient_id", patient.ID), zap.Bool("pharma_linked", patient.HasPharmaID()))
	return patient, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id string) (domain.Patient, error) {
	if !isIdentifier(id) {
		return domain.Patient{}, ErrInvalidPatientID
	}
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Patient{}, ErrPatientNotFound
		}
		return domain.Patient{}, err
	}
	return patient, nil
}

func (s *PatientService) HasPharmaID(ctx context.Context, id string) (bool, error) {
	patient, err := s.GetPatient(ctx, id)
	if err != nil {
		return false, err
	}
	return patient.HasPharmaID(), nil
}

// SearchPatients resuelve la búsqueda según su clasificación. Nunca falla por
// falta de coincidencias; solo propaga errores de persistencia.
func (s *PatientService) SearchPatients(ctx context.Context, query string) ([]domain.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Patient{}, nil
	}

	q := ClassifyQuery(query)
	s.logger.Debug("patient search", zap.Stringer("kind", q.Kind))

	switch q.Kind {
	case QueryIdentifier:
		return singletonOrEmpty(s.patients.GetByID(ctx, q.Raw))
	case QueryPhoneNumber:
		return singletonOrEmpty(s.patients.GetByPhoneNumber(ctx, q.Raw))
	case QuerySingleName:
		byFirst, err := s.patients.ListByFirstName(ctx, q.Raw)
		if err != nil {
			return nil, err
		}
		byLast, err := s.patients.ListByLastName(ctx, q.Raw)
		if err != nil {
			return nil, err
		}
		// Sin deduplicar: primero coincidencias por nombre, luego por apellido.
		out := make([]domain.Patient, 0, len(byFirst)+len(byLast))
		out = append(out, byFirst...)
		return append(out, byLast...), nil
	case QueryFullName:
		patients, err := s.patients.ListByFullName(ctx, q.FirstName, q.LastName)
		if err != nil {
			return nil, err
		}
		if patients == nil {
			patients = []domain.Patient{}
		}
		return patients, nil
	default:
		return []domain.Patient{}, nil
	}
}

func singletonOrEmpty(patient domain.Patient, err error) ([]domain.Patient, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Patient{}, nil
		}
		return nil, err
	}
	return []domain.Patient{patient}, nil
}
