package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		handler        http.HandlerFunc
		name           string
		method         string
		path           string
		wantLevel      string
		expectedStatus int
	}{
		{
			name:   "GET request with 200 OK",
			method: http.MethodGet,
			path:   "/auth/me",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("success"))
			},
			expectedStatus: http.StatusOK,
			wantLevel:      "INFO",
		},
		{
			name:   "POST request with 201 Created",
			method: http.MethodPost,
			path:   "/auth/register",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			expectedStatus: http.StatusCreated,
			wantLevel:      "INFO",
		},
		{
			name:   "401 logs as warn",
			method: http.MethodPost,
			path:   "/auth/login",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			expectedStatus: http.StatusUnauthorized,
			wantLevel:      "WARN",
		},
		{
			name:   "500 logs as error",
			method: http.MethodPost,
			path:   "/auth/login",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectedStatus: http.StatusInternalServerError,
			wantLevel:      "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			handler := Logging(logger)(tt.handler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "192.168.1.1:12345"
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, "HTTP request")
			assert.Contains(t, logOutput, "method="+tt.method)
			assert.Contains(t, logOutput, "path="+tt.path)
			assert.Contains(t, logOutput, "remote_addr=192.168.1.1:12345")
			assert.Contains(t, logOutput, "level="+tt.wantLevel)
		})
	}
}

func TestLogging_DoesNotLogSecrets(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"alice","secret":"s3cret-pass"}`))
	req.Header.Set("Authorization", "Bearer super-secret-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotContains(t, logBuf.String(), "s3cret-pass")
	assert.NotContains(t, logBuf.String(), "super-secret-token")
}

func TestLogging_CapturesBytesWritten(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("12345"))
		_, _ = w.Write([]byte("678"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, logBuf.String(), "bytes_written=8")
	assert.Contains(t, logBuf.String(), "status=200")
}

func TestLogging_SkipPaths(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	handler := Logging(logger, "/health", "/metrics")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, logBuf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Contains(t, logBuf.String(), "path=/auth/me")
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	_, _ = rw.Write([]byte("body"))
	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, int64(4), rw.written)
	assert.Equal(t, rec, rw.Unwrap())
}
