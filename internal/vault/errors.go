package vault

import "errors"

var (
	// ErrParse — файл хранилища не JSON или имеет неверную форму.
	ErrParse = errors.New("vault parse error")
	// ErrVersionMismatch — в конверте нет версии или она не "1".
	ErrVersionMismatch = errors.New("vault version mismatch")
	// ErrIndexOutOfRange — индекс вне списка аккаунтов.
	ErrIndexOutOfRange = errors.New("account index out of range")
	// ErrInvalidIssuer — issuer содержит разделитель ':'.
	ErrInvalidIssuer = errors.New("issuer must not contain ':'")
	// ErrDuplicateIdentity — совпадение (issuer, label). Методы Engine
	// сообщают о нём результатом false; вызывающие могут обернуть его для пользователя.
	ErrDuplicateIdentity = errors.New("duplicate issuer and label")
)
