package pharmaid

import (
	"context"

	"emergency-aid/internal/domain"
)

// MockClient permite tests sin llamar a PharmaId. Registra las llamadas en orden.
type MockClient struct {
	Granted       bool
	GrantErr      error
	Prescriptions []domain.Prescription
	FetchErr      error
	Calls         []string
}

func (m *MockClient) RequestViewAccess(_ context.Context, externalPatientID string) (bool, error) {
	m.Calls = append(m.Calls, "request_access:"+externalPatientID)
	return m.Granted, m.GrantErr
}

func (m *MockClient) FetchPrescriptions(_ context.Context, externalPatientID string) ([]domain.Prescription, error) {
	m.Calls = append(m.Calls, "fetch:"+externalPatientID)
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if m.Prescriptions == nil {
		return []domain.Prescription{}, nil
	}
	return m.Prescriptions, nil
}
