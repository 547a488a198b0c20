package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"emergency-aid/internal/domain"
	"emergency-aid/internal/repository"
)

type mockPatientRepo struct {
	patients  []domain.Patient
	createErr error
	queryErr  error
	calls     []string
}

func (m *mockPatientRepo) Create(_ context.Context, patient domain.Patient) error {
	m.calls = append(m.calls, "create")
	if m.createErr != nil {
		return m.createErr
	}
	m.patients = append(m.patients, patient)
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id string) (domain.Patient, error) {
	m.calls = append(m.calls, "by_id")
	if m.queryErr != nil {
		return domain.Patient{}, m.queryErr
	}
	for _, p := range m.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Patient{}, pgx.ErrNoRows
}

func (m *mockPatientRepo) GetByPhoneNumber(_ context.Context, phoneNumber string) (domain.Patient, error) {
	m.calls = append(m.calls, "by_phone")
	for _, p := range m.patients {
		if p.PhoneNumber == phoneNumber {
			return p, nil
		}
	}
	return domain.Patient{}, pgx.ErrNoRows
}

func (m *mockPatientRepo) ListByFirstName(_ context.Context, firstName string) ([]domain.Patient, error) {
	m.calls = append(m.calls, "by_first")
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.filter(func(p domain.Patient) bool { return strings.EqualFold(p.FirstName, firstName) }), nil
}

func (m *mockPatientRepo) ListByLastName(_ context.Context, lastName string) ([]domain.Patient, error) {
	m.calls = append(m.calls, "by_last")
	return m.filter(func(p domain.Patient) bool { return strings.EqualFold(p.LastName, lastName) }), nil
}

func (m *mockPatientRepo) ListByFullName(_ context.Context, firstName, lastName string) ([]domain.Patient, error) {
	m.calls = append(m.calls, "by_full:"+firstName+"|"+lastName)
	return m.filter(func(p domain.Patient) bool {
		return strings.EqualFold(p.FirstName, firstName) && strings.EqualFold(p.LastName, lastName)
	}), nil
}

func (m *mockPatientRepo) filter(match func(domain.Patient) bool) []domain.Patient {
	var out []domain.Patient
	for _, p := range m.patients {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}

const (
	johnID = "9101d183-26e6-45b7-a8c4-25f24fdb36fa"
	janeID = "7f72c869-7f99-4a77-8242-598a6b933ded"
	doeID  = "6e82b869-8f99-4b88-9242-498a5b933def"
)

func seededPatientRepo() *mockPatientRepo {
	pharma := "ext-john"
	return &mockPatientRepo{patients: []domain.Patient{
		{ID: johnID, FirstName: "John", LastName: "Smith", PhoneNumber: "800-555-1234", PharmaID: &pharma},
		{ID: janeID, FirstName: "Jane", LastName: "John", PhoneNumber: "800-555-0000"},
		{ID: doeID, FirstName: "Jane", LastName: "Doe", PhoneNumber: "800-555-9999"},
	}}
}

func ids(patients []domain.Patient) []string {
	out := make([]string, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.ID)
	}
	return out
}

func TestSearchPatients_PhoneNumberDispatchesOnlyToPhoneLookup(t *testing.T) {
	repo := seededPatientRepo()
	svc := NewPatientService(zap.NewNop(), repo)

	got, err := svc.SearchPatients(context.Background(), "800-555-1234")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != johnID {
		t.Fatalf("unexpected result %v", ids(got))
	}
	if len(repo.calls) != 1 || repo.calls[0] != "by_phone" {
		t.Fatalf("expected only phone lookup, got %v", repo.calls)
	}
}

func TestSearchPatients_Identifier(t *testing.T) {
	repo := seededPatientRepo()
	svc := NewPatientService(zap.NewNop(), repo)

	got, err := svc.SearchPatients(context.Background(), "  "+janeID+"  ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != janeID {
		t.Fatalf("unexpected result %v", ids(got))
	}
	if len(repo.calls) != 1 || repo.calls[0] != "by_id" {
		t.Fatalf("expected only id lookup, got %v", repo.calls)
	}

	got, err = svc.SearchPatients(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v, %v", got, err)
	}
}

func TestSearchPatients_SingleNameConcatenatesFirstThenLast(t *testing.T) {
	repo := seededPatientRepo()
	svc := NewPatientService(zap.NewNop(), repo)

	got, err := svc.SearchPatients(context.Background(), "john")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{johnID, janeID}
	if strings.Join(ids(got), ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
	if strings.Join(repo.calls, ",") != "by_first,by_last" {
		t.Fatalf("unexpected calls %v", repo.calls)
	}
}

func TestSearchPatients_SingleNameDoesNotDeduplicate(t *testing.T) {
	repo := &mockPatientRepo{patients: []domain.Patient{
		{ID: johnID, FirstName: "Lee", LastName: "Lee", PhoneNumber: "800-555-1234"},
	}}
	svc := NewPatientService(zap.NewNop(), repo)

	got, err := svc.SearchPatients(context.Background(), "Lee")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the same patient twice, got %v", ids(got))
	}
}

func TestSearchPatients_FullName(t *testing.T) {
	repo := seededPatientRepo()
	svc := NewPatientService(zap.NewNop(), repo)

	got, err := svc.SearchPatients(context.Background(), "jane   DOE")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != doeID {
		t.Fatalf("unexpected result %v", ids(got))
	}
	if len(repo.calls) != 1 || repo.calls[0] != "by_full:jane|DOE" {
		t.Fatalf("unexpected calls %v", repo.calls)
	}

	got, err = svc.SearchPatients(context.Background(), "Nobody Here")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v, %v", got, err)
	}
}

func TestSearchPatients_BlankQuery(t *testing.T) {
	repo := seededPatientRepo()
	svc := NewPatientService(zap.NewNop(), repo)

	got, err := svc.SearchPatients(context.Background(), " \t ")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v, %v", got, err)
	}
	if len(repo.calls) != 0 {
		t.Fatalf("expected no lookups, got %v", repo.calls)
	}
}

func TestSearchPatients_PropagatesRepositoryErrors(t *testing.T) {
	repo := seededPatientRepo()
	repo.queryErr = errors.New("db down")
	svc := NewPatientService(zap.NewNop(), repo)

	if _, err := svc.SearchPatients(context.Background(), "John"); err == nil {
		t.Fatalf("expected repository error")
	}
}

func TestRegisterPatient_Valid(t *testing.T) {
	repo := &mockPatientRepo{}
	svc := NewPatientService(zap.NewNop(), repo)

	p, err := svc.RegisterPatient(context.Background(), RegisterPatientInput{
		FirstName:   "  John ",
		LastName:    "\tDoe ",
		PhoneNumber: " 800-100-9999 ",
		PharmaID:    " ext-1 ",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.ID == "" || p.FirstName != "John" || p.LastName != "Doe" || p.PhoneNumber != "800-100-9999" {
		t.Fatalf("unexpected patient %+v", p)
	}
	if p.PharmaID == nil || *p.PharmaID != "ext-1" {
		t.Fatalf("expected trimmed pharma id, got %v", p.PharmaID)
	}
	if len(repo.patients) != 1 {
		t.Fatalf("expected patient stored")
	}
}

func TestRegisterPatient_BlankPharmaIDIsAbsent(t *testing.T) {
	repo := &mockPatientRepo{}
	svc := NewPatientService(zap.NewNop(), repo)

	p, err := svc.RegisterPatient(context.Background(), RegisterPatientInput{
		FirstName: "John", LastName: "Doe", PhoneNumber: "800-100-9999", PharmaID: "   ",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.HasPharmaID() {
		t.Fatalf("expected no pharma id, got %q", *p.PharmaID)
	}
}

func TestRegisterPatient_ValidationBeforePersistence(t *testing.T) {
	cases := []struct {
		name  string
		input RegisterPatientInput
		want  error
	}{
		{"phone without dashes", RegisterPatientInput{FirstName: "John", LastName: "Doe", PhoneNumber: "1234567890"}, ErrInvalidPhoneNumber},
		{"blank first name", RegisterPatientInput{FirstName: " ", LastName: "Doe", PhoneNumber: "800-100-9999"}, ErrInvalidFirstName},
		{"first name with space", RegisterPatientInput{FirstName: "John Paul", LastName: "Doe", PhoneNumber: "800-100-9999"}, ErrInvalidFirstName},
		{"blank last name", RegisterPatientInput{FirstName: "John", PhoneNumber: "800-100-9999"}, ErrInvalidLastName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockPatientRepo{}
			svc := NewPatientService(zap.NewNop(), repo)

			_, err := svc.RegisterPatient(context.Background(), tc.input)
			if !errors.Is(err, tc.want) || !errors.Is(err, ErrValidation) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(repo.calls) != 0 {
				t.Fatalf("expected no repository calls, got %v", repo.calls)
			}
		})
	}
}

func TestRegisterPatient_DuplicatePhone(t *testing.T) {
	repo := &mockPatientRepo{createErr: repository.ErrDuplicate}
	svc := NewPatientService(zap.NewNop(), repo)

	_, err := svc.RegisterPatient(context.Background(), RegisterPatientInput{
		FirstName: "John", LastName: "Doe", PhoneNumber: "800-100-9999",
	})
	if !errors.Is(err, ErrPhoneNumberTaken) {
		t.Fatalf("expected ErrPhoneNumberTaken, got %v", err)
	}
}

func TestGetPatient(t *testing.T) {
	svc := NewPatientService(zap.NewNop(), seededPatientRepo())

	p, err := svc.GetPatient(context.Background(), johnID)
	if err != nil || p.ID != johnID {
		t.Fatalf("expected john, got %+v, %v", p, err)
	}
	if _, err := svc.GetPatient(context.Background(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidPatientID) {
		t.Fatalf("expected ErrInvalidPatientID, got %v", err)
	}
}

func TestGetPatient_RejectsNonCanonicalIDsBeforeLookup(t *testing.T) {
	repo := seededPatientRepo()
	svc := NewPatientService(zap.NewNop(), repo)

	for _, id := range []string{
		"urn:uuid:" + johnID,
		"{" + johnID + "}",
		strings.ReplaceAll(johnID, "-", ""),
	} {
		if _, err := svc.GetPatient(context.Background(), id); !errors.Is(err, ErrInvalidPatientID) {
			t.Fatalf("%q: expected ErrInvalidPatientID, got %v", id, err)
		}
	}
	if len(repo.calls) != 0 {
		t.Fatalf("expected no repository lookups, got %v", repo.calls)
	}
}

func TestHasPharmaID(t *testing.T) {
	svc := NewPatientService(zap.NewNop(), seededPatientRepo())

	if ok, err := svc.HasPharmaID(context.Background(), johnID); err != nil || !ok {
		t.Fatalf("expected pharma id for john, got %v, %v", ok, err)
	}
	if ok, err := svc.HasPharmaID(context.Background(), janeID); err != nil || ok {
		t.Fatalf("expected no pharma id for jane, got %v, %v", ok, err)
	}
}
