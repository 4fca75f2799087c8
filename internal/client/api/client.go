package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/gamelib/pkg/api"
)

var (
	// ErrUnauthorized - сервер ответил 401: неверные учетные данные или недействительный токен
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict - сервер ответил 409: identifier занят
	ErrConflict = errors.New("identifier already taken")
)

// ValidationError - сервер отклонил запрос с ошибками по полям (400)
type ValidationError struct {
	Fields  map[string]string
	Message string
}

// Error реализует интерфейс error
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// StatusError - любой другой неуспешный ответ сервера
type StatusError struct {
	Message    string
	StatusCode int
}

// Error реализует интерфейс error
func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:       30 * time.Second,
			CheckRedirect: checkRedirect,
		},
	}
}

// checkRedirect ограничивает число редиректов и переносит Authorization
// только в пределах исходного хоста
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if len(via) == 0 {
		return nil
	}

	origin := via[0]
	if req.URL.Host != origin.URL.Host {
		req.Header.Del("Authorization")
		return nil
	}
	if auth := origin.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return nil
}

// Register регистрирует нового пользователя и возвращает сессию
func (c *Client) Register(ctx context.Context, req api.CredentialsRequest) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.CredentialsRequest) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Me возвращает владельца токена
func (c *Client) Me(ctx context.Context, token string) (*api.UserSummary, error) {
	var resp api.MeResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp.User, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", "", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос и разбирает ответ
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError превращает неуспешный ответ в типизированную ошибку
func statusError(statusCode int, body []byte) error {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		errResp.Message = strings.TrimSpace(string(body))
		if errResp.Message == "" {
			errResp.Message = http.StatusText(statusCode)
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errResp.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, errResp.Message)
	case http.StatusBadRequest:
		return &ValidationError{Message: errResp.Message, Fields: errResp.Fields}
	default:
		return &StatusError{StatusCode: statusCode, Message: errResp.Message}
	}
}
