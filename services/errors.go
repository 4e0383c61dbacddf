package services

import "errors"

// Ошибки уровня сервисов; хендлеры переводят их в HTTP статусы.
var (
	// ErrNotFound — цель/шаг/пользователь не существует или принадлежит
	// другому пользователю.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded — бесплатный тариф исчерпал лимит целей.
	ErrQuotaExceeded = errors.New("goal quota exceeded")

	// ErrUnauthorized — запрос без проверенной личности.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoSubscription — отмена без активной подписки.
	ErrNoSubscription = errors.New("no active subscription")
)
