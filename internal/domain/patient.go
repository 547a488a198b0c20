package domain

import "time"

// Patient es un paciente registrado localmente. PharmaID es nil cuando el
// paciente no tiene cuenta vinculada en PharmaId.
type Patient struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	PharmaID    *string   `json:"pharma_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p Patient) HasPharmaID() bool {
	return p.PharmaID != nil
}
