package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/gamelib/internal/validation"
	"github.com/iudanet/gamelib/pkg/api"
)

// maxBodyBytes ограничивает размер тела запроса
const maxBodyBytes = 1 << 20

// decodeJSON читает тело запроса в dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// sendValidationError отправляет 400 с ошибками по полям
func sendValidationError(logger *slog.Logger, w http.ResponseWriter, errs validation.Errors) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: "validation failed",
		Fields:  errs,
	}
	sendJSON(logger, w, resp, http.StatusBadRequest)
}

// SendError пишет ошибку в формате API; используется middleware
func SendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	sendError(logger, w, message, statusCode)
}
