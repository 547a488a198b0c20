package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emergency-aid/internal/domain"
)

// PatientRepository define las búsquedas y el alta de pacientes.
// Las búsquedas por nombre no distinguen mayúsculas.
type PatientRepository interface {
	Create(ctx context.Context, patient domain.Patient) error
	GetByID(ctx context.Context, id string) (domain.Patient, error)
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (domain.Patient, error)
	ListByFirstName(ctx context.Context, firstName string) ([]domain.Patient, error)
	ListByLastName(ctx context.Context, lastName string) ([]domain.Patient, error)
	ListByFullName(ctx context.Context, firstName, lastName string) ([]domain.Patient, error)
}

// PgPatientRepository implementa PatientRepository usando pgxpool.
type PgPatientRepository struct {
	pool *pgxpool.Pool
}

func NewPgPatientRepository(pool *pgxpool.Pool) *PgPatientRepository {
	return &PgPatientRepository{pool: pool}
}

const patientColumns = `id, first_name, last_name, phone_number, pharma_id, created_at`

func (r *PgPatientRepository) Create(ctx context.Context, patient domain.Patient) error {
	const query = `
		INSERT INTO patients (id, first_name, last_name, phone_number, pharma_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		patient.ID,
		patient.FirstName,
		patient.LastName,
		patient.PhoneNumber,
		patient.PharmaID,
		patient.CreatedAt,
	)
	return mapWriteError(err)
}

func (r *PgPatientRepository) GetByID(ctx context.Context, id string) (domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return scanPatient(r.pool.QueryRow(ctx, query, id))
}

func (r *PgPatientRepository) GetByPhoneNumber(ctx context.Context, phoneNumber string) (domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE phone_number = $1`
	return scanPatient(r.pool.QueryRow(ctx, query, phoneNumber))
}

func (r *PgPatientRepository) ListByFirstName(ctx context.Context, firstName string) ([]domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients
		WHERE LOWER(first_name) = LOWER($1)
		ORDER BY created_at, id`
	return r.list(ctx, query, firstName)
}

func (r *PgPatientRepository) ListByLastName(ctx context.Context, lastName string) ([]domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients
		WHERE LOWER(last_name) = LOWER($1)
		ORDER BY created_at, id`
	return r.list(ctx, query, lastName)
}

func (r *PgPatientRepository) ListByFullName(ctx context.Context, firstName, lastName string) ([]domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients
		WHERE LOWER(first_name) = LOWER($1)
		  AND LOWER(last_name) = LOWER($2)
		ORDER BY created_at, id`
	return r.list(ctx, query, firstName, lastName)
}

func (r *PgPatientRepository) list(ctx context.Context, query string, args ...any) ([]domain.Patient, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]domain.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func scanPatient(row pgx.Row) (domain.Patient, error) {
	var p domain.Patient
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.PhoneNumber,
		&p.PharmaID,
		&p.CreatedAt,
	)
	if err != nil {
		return domain.Patient{}, err
	}
	return p, nil
}
