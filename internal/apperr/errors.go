package apperr

import (
	"errors"
	"fmt"
)

// Код ошибки для клиента (машинно-читаемый)
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeForbidden      = "FORBIDDEN"
	CodeBusinessRule   = "BUSINESS_RULE_VIOLATION"
	CodeNotFound       = "NOT_FOUND"
)

// Error - структурированная ошибка, возвращаемая клиенту API.
// Наружу уходят только сообщение и код, внутренние детали остаются в логах.
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Validation - некорректные входные данные, клиент может исправить запрос
func Validation(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Authentication - неверный PIN или учетные данные
func Authentication(format string, args ...interface{}) *Error {
	return &Error{Code: CodeAuthentication, Message: fmt.Sprintf(format, args...)}
}

// Forbidden - недостаточно прав для операции
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// BusinessRule - операция несовместима с текущим состоянием объекта
func BusinessRule(format string, args ...interface{}) *Error {
	return &Error{Code: CodeBusinessRule, Message: fmt.Sprintf(format, args...)}
}

// NotFound - запрошенный ресурс не существует
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap добавляет внутреннюю причину, не меняя клиентское сообщение
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, err: err}
}

// As извлекает *Error из цепочки ошибок
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
