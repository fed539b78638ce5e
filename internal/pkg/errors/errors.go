package errors

import "errors"

// Общие ошибки приложения. Сервисы оборачивают их через fmt.Errorf("%w: ...")
// и хендлеры сопоставляют их с HTTP статусами через errors.Is.
var (
	// ErrNotFound - турнир, пользователь или другая запись не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized - нет токена или токен невалиден.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden - роль пользователя не позволяет выполнить действие.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation - некорректные входные данные.
	ErrValidation = errors.New("validation failed")

	// ErrConflict - конфликт состояния (турнир не активен, повторная отправка и т.п.).
	ErrConflict = errors.New("resource state conflict")
)
