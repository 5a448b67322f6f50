package transfer

import (
	"errors"
	"fmt"
)

// Status — код результата операции переноса для интерфейса.
type Status int

const (
	StatusOK          Status = 0
	StatusFileMissing Status = -1
	StatusReadFailure Status = -2
	StatusJSONParse   Status = -3
	StatusURIParse    Status = -4
	StatusUnexpected  Status = -5
)

// ErrVaultEmpty возвращают Backup и Export, когда писать нечего.
var ErrVaultEmpty = errors.New("vault is empty")

// Reason — текстовое описание s.
func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFileMissing:
		return "file not found"
	case StatusReadFailure:
		return "file could not be read"
	case StatusJSONParse:
		return "file is not a valid JSON account list"
	case StatusURIParse:
		return "file contains an invalid otpauth URI"
	case StatusUnexpected:
		return "unexpected error"
	default:
		return fmt.Sprintf("unknown status %d", int(s))
	}
}

// Error несёт Status вместе с исходной причиной.
type Error struct {
	Status Status
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Status.Reason()
	}
	return e.Status.Reason() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func fail(s Status, err error) error {
	return &Error{Status: s, Err: err}
}

// StatusOf сопоставляет err код статуса. nil — StatusOK; ошибки без
// статуса — StatusUnexpected.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Status
	}
	return StatusUnexpected
}
