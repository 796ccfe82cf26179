package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/MintShards/pawn-repo-sub002/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError переводит ошибку приложения в HTTP-ответ с кодом и сообщением
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	if appErr, ok := apperr.As(err); ok {
		writeJSON(w, statusFor(appErr.Code), map[string]string{
			"error":   appErr.Code,
			"message": appErr.Message,
		})
		return
	}

	logger.WithError(err).Error("Внутренняя ошибка сервера")
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "INTERNAL_ERROR",
		"message": "внутренняя ошибка сервера",
	})
}

func statusFor(code string) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeAuthentication:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeBusinessRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
