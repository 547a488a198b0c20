package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// QueryKind es la categoría de una búsqueda de pacientes.
type QueryKind int

const (
	QueryInvalid QueryKind = iota
	QueryIdentifier
	QueryPhoneNumber
	QuerySingleName
	QueryFullName
)

func (k QueryKind) String() string {
	switch k {
	case QueryIdentifier:
		return "identifier"
	case QueryPhoneNumber:
		return "phone_number"
	case QuerySingleName:
		return "single_name"
	case QueryFullName:
		return "full_name"
	default:
		return "invalid"
	}
}

// canonicalUUIDLen es el largo de la forma 8-4-4-4-12; uuid.Parse también
// acepta variantes con llaves, urn o sin guiones.
const canonicalUUIDLen = 36

var phoneNumberPattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)

// PatientQuery es una búsqueda ya clasificada. FirstName y LastName solo se
// completan para QueryFullName.
type PatientQuery struct {
	Raw       string
	Kind      QueryKind
	FirstName string
	LastName  string
}

// ClassifyQuery clasifica la búsqueda; gana la primera regla que aplica:
// identificador, teléfono, nombre simple, nombre completo.
func ClassifyQuery(raw string) PatientQuery {
	q := PatientQuery{Raw: raw, Kind: QueryInvalid}
	switch {
	case isIdentifier(raw):
		q.Kind = QueryIdentifier
	case isPhoneNumber(raw):
		q.Kind = QueryPhoneNumber
	case isSingleName(raw):
		q.Kind = QuerySingleName
	default:
		if first, last, ok := splitFullName(raw); ok {
			q.Kind = QueryFullName
			q.FirstName = first
			q.LastName = last
		}
	}
	return q
}

func isIdentifier(s string) bool {
	if len(s) != canonicalUUIDLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isPhoneNumber(s string) bool {
	return phoneNumberPattern.MatchString(s)
}

// isSingleName acepta cualquier token no vacío sin espacios, sin restringir
// el juego de caracteres.
func isSingleName(s string) bool {
	return strings.TrimSpace(s) != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
}

// splitFullName corta en el primer tramo de espacios. El segundo segmento se
// conserva tal cual, aunque contenga más espacios.
func splitFullName(s string) (string, string, bool) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i <= 0 {
		return "", "", false
	}
	rest := strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	if rest == "" {
		return "", "", false
	}
	return s[:i], rest, true
}
