package document

import (
	"fmt"
	"strings"
)

// Type is a supported identity document kind.
type Type string

const (
	// TypeDNI is the national identity card, 8 digits.
	TypeDNI Type = "dni"
	// TypeRUC is the taxpayer registry number, 11 digits.
	TypeRUC Type = "ruc"
)

// ParseType normalizes and validates a document type string.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeDNI, TypeRUC:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDocumentType, s)
	}
}

func (t Type) digits() int {
	if t == TypeRUC {
		return 11
	}
	return 8
}

// ValidateNumber checks the number has the exact digit count for the type.
func (t Type) ValidateNumber(number string) error {
	if len(number) != t.digits() {
		return fmt.Errorf("%w: %s must have %d digits", ErrInvalidNumber, t, t.digits())
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %s must contain only digits", ErrInvalidNumber, t)
		}
	}
	return nil
}

// Result is the normalized lookup response. DNI lookups fill the person
// fields, RUC lookups fill the company fields.
type Result struct {
	DNI             string `json:"dni,omitempty"`
	RUC             string `json:"ruc,omitempty"`
	FirstName       string `json:"firstname,omitempty"`
	FathersLastName string `json:"fathers_lastname,omitempty"`
	MothersLastName string `json:"mothers_lastname,omitempty"`
	FullName        string `json:"fullname,omitempty"`
	RazonSocial     string `json:"razon_social,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	Estado          string `json:"estado,omitempty"`
	Condicion       string `json:"condicion,omitempty"`
}

type dniResponse struct {
	FirstName      string `json:"first_name"`
	FirstLastName  string `json:"first_last_name"`
	SecondLastName string `json:"second_last_name"`
	FullName       string `json:"full_name"`
	DocumentNumber string `json:"document_number"`
}

func (r dniResponse) result() *Result {
	return &Result{
		DNI:             r.DocumentNumber,
		FirstName:       r.FirstName,
		FathersLastName: r.FirstLastName,
		MothersLastName: r.SecondLastName,
		FullName:        r.FullName,
	}
}

type rucResponse struct {
	RazonSocial     string `json:"razon_social"`
	NumeroDocumento string `json:"numero_documento"`
	Estado          string `json:"estado"`
	Condicion       string `json:"condicion"`
	Direccion       string `json:"direccion"`
}

func (r rucResponse) result() *Result {
	return &Result{
		RUC:         r.NumeroDocumento,
		RazonSocial: r.RazonSocial,
		Direccion:   r.Direccion,
		Estado:      r.Estado,
		Condicion:   r.Condicion,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}
