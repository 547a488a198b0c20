package pharmaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"emergency-aid/internal/domain"
)

const sharePermissionView = "VIEW"

// HeaderSource provee los headers autenticados de la sesión vigente.
type HeaderSource interface {
	Headers() (http.Header, error)
}

// AccessRequester solicita un permiso VIEW sobre un paciente externo.
type AccessRequester interface {
	RequestViewAccess(ctx context.Context, externalPatientID string) (bool, error)
}

// PrescriptionFetcher obtiene las prescripciones de un paciente externo.
type PrescriptionFetcher interface {
	FetchPrescriptions(ctx context.Context, externalPatientID string) ([]domain.Prescription, error)
}

// Client implementa AccessRequester y PrescriptionFetcher contra la API de PharmaId.
type Client struct {
	baseURL  string
	clientID string
	session  HeaderSource
	client   *http.Client
	logger   *zap.Logger
}

// NewClient construye un cliente; clientID es el requesterId de este servicio en PharmaId.
func NewClient(baseURL, clientID string, session HeaderSource, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		session:  session,
		client:   httpClient,
		logger:   logger,
	}
}

type accessRequest struct {
	SharePermissionType string `json:"sharePermissionType"`
}

// RequestViewAccess hace un único intento de crear el permiso. Solo 201 cuenta
// como éxito; cualquier otro status devuelve false sin error.
func (c *Client) RequestViewAccess(ctx context.Context, externalPatientID string) (bool, error) {
	headers, err := c.session.Headers()
	if err != nil {
		return false, fmt.Errorf("%w: patient %s: %w", ErrAccessRequestFailure, externalPatientID, err)
	}

	bodyBytes, err := json.Marshal(accessRequest{SharePermissionType: sharePermissionView})
	if err != nil {
		return false, fmt.Errorf("%w: patient %s: marshal request: %w", ErrAccessRequestFailure, externalPatientID, err)
	}

	query := url.Values{}
	query.Set("requesterId", c.clientID)
	endpoint := fmt.Sprintf("%s/users/%s/requests?%s", c.baseURL, url.PathEscape(externalPatientID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return false, fmt.Errorf("%w: patient %s: create request: %w", ErrAccessRequestFailure, externalPatientID, err)
	}
	req.Header = headers

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("pharmaid access request failed", zap.String("pharma_id", externalPatientID), zap.Error(err))
		return false, fmt.Errorf("%w: patient %s: do request: %w", ErrAccessRequestFailure, externalPatientID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("pharmaid access request",
		zap.String("pharma_id", externalPatientID),
		zap.Int("status", resp.StatusCode),
	)
	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("pharmaid rejected session credential", zap.String("op", "request_access"))
	}
	return resp.StatusCode == http.StatusCreated, nil
}

// FetchPrescriptions devuelve las prescripciones tal como llegan. Un 404 se
// interpreta como "sin prescripciones"; el resultado nunca es nil.
func (c *Client) FetchPrescriptions(ctx context.Context, externalPatientID string) ([]domain.Prescription, error) {
	headers, err := c.session.Headers()
	if err != nil {
		return nil, fmt.Errorf("%w: patient %s: %w", ErrFetchFailure, externalPatientID, err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/prescriptions", c.baseURL, url.PathEscape(externalPatientID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: patient %s: create request: %w", ErrFetchFailure, externalPatientID, err)
	}
	req.Header = headers

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("pharmaid fetch prescriptions failed", zap.String("pharma_id", externalPatientID), zap.Error(err))
		return nil, fmt.Errorf("%w: patient %s: do request: %w", ErrFetchFailure, externalPatientID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return []domain.Prescription{}, nil
	case http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("pharmaid rejected session credential", zap.String("op", "fetch_prescriptions"))
		return nil, fmt.Errorf("%w: patient %s: %w: %w", ErrFetchFailure, externalPatientID, ErrCredentialRejected,
			&StatusError{Op: "fetch prescriptions", StatusCode: resp.StatusCode})
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: patient %s: %w", ErrFetchFailure, externalPatientID,
			&StatusError{Op: "fetch prescriptions", StatusCode: resp.StatusCode})
	}

	var prescriptions []domain.Prescription
	if err := json.NewDecoder(resp.Body).Decode(&prescriptions); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: patient %s: decode response: %w", ErrFetchFailure, externalPatientID, err)
	}
	if prescriptions == nil {
		prescriptions = []domain.Prescription{}
	}
	return prescriptions, nil
}
