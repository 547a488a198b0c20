package pharmaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Session es la credencial vigente contra PharmaId. Se reemplaza completa en
// cada login y nunca se modifica.
type Session struct {
	Token     string
	IssuedFor string
}

// SessionManager mantiene una única sesión por proceso y construye los
// headers autenticados a partir de ella.
type SessionManager struct {
	baseURL  string
	email    string
	password string
	client   *http.Client
	logger   *zap.Logger
	current  atomic.Pointer[Session]
}

// NewSessionManager construye el manager; no hace login.
func NewSessionManager(baseURL, email, password string, httpClient *http.Client, logger *zap.Logger) *SessionManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
		client:   httpClient,
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login envía la identidad del cliente a POST /login y guarda el token
// devuelto. Llamarlo de nuevo reemplaza la sesión anterior.
func (m *SessionManager) Login(ctx context.Context) error {
	bodyBytes, err := json.Marshal(loginRequest{Email: m.email, Password: m.password})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %w", ErrAuthenticationFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/login", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrAuthenticationFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("pharmaid login failed", zap.Error(err))
		return fmt.Errorf("%w: do request: %w", ErrAuthenticationFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		m.logger.Error("pharmaid login rejected", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %w", ErrAuthenticationFailure, &StatusError{Op: "login", StatusCode: resp.StatusCode})
	}

	var lr *loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty login response", ErrAuthenticationFailure)
		}
		return fmt.Errorf("%w: decode response: %w", ErrAuthenticationFailure, err)
	}
	if lr == nil || lr.Token == "" {
		return fmt.Errorf("%w: login response without token", ErrAuthenticationFailure)
	}

	m.current.Store(&Session{Token: lr.Token, IssuedFor: m.email})
	m.logger.Info("pharmaid login successful", zap.String("identity", m.email))
	return nil
}

// Current devuelve la sesión vigente, si existe.
func (m *SessionManager) Current() (Session, bool) {
	s := m.current.Load()
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

// Headers devuelve Authorization y Content-Type para llamadas autenticadas.
func (m *SessionManager) Headers() (http.Header, error) {
	s := m.current.Load()
	if s == nil {
		return nil, fmt.Errorf("%w: no active session", ErrAuthenticationFailure)
	}
	h := make(http.Header, 2)
	h.Set("Authorization", "Bearer "+s.Token)
	h.Set("Content-Type", "application/json")
	return h, nil
}
