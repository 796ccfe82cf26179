package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code string
	}{
		{"validation", Validation("bad input"), CodeValidation},
		{"authentication", Authentication("bad pin"), CodeAuthentication},
		{"forbidden", Forbidden("staff only"), CodeForbidden},
		{"business rule", BusinessRule("ticket closed"), CodeBusinessRule},
		{"not found", NotFound("no such ticket"), CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
		})
	}
}

func TestWrapAndAs(t *testing.T) {
	cause := errors.New("sql: no rows")
	err := NotFound("билет не найден").Wrap(cause)

	// Причина доступна через errors.Is, но не попадает в сообщение клиенту
	if !errors.Is(err, cause) {
		t.Error("обернутая причина должна находиться через errors.Is")
	}
	if err.Message != "билет не найден" {
		t.Errorf("Message = %q", err.Message)
	}

	wrapped := fmt.Errorf("ошибка обработки: %w", err)
	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("As() должен извлекать *Error из цепочки")
	}
	if appErr.Code != CodeNotFound {
		t.Errorf("Code = %s, want %s", appErr.Code, CodeNotFound)
	}
}

func TestAsPlainError(t *testing.T) {
	if _, ok := As(errors.New("plain")); ok {
		t.Error("обычная ошибка не должна распознаваться как *Error")
	}
}
