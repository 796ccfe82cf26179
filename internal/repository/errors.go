package repository

import "errors"

// Сигнальные ошибки отсутствия записи - сервисы переводят их
// в клиентскую ошибку NOT_FOUND на границе API
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrExtensionNotFound   = errors.New("extension not found")
)

// IsNotFound сообщает, является ли ошибка отсутствием записи
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrExtensionNotFound)
}
