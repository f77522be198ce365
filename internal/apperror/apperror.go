package apperror

import "errors"

type Code string

const (
	InvalidInput Code = "INVALID_INPUT"
	FetchFailed  Code = "FETCH_FAILED"
	ParseFailed  Code = "PARSE_FAILED"
	NotFound     Code = "NOT_FOUND"
	Internal     Code = "INTERNAL"
)

type AppError struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

func Wrap(code Code, message string, cause error) *AppError {
	return &AppError{code: code, message: message, cause: cause}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.cause }

// CodeOf reports the code carried by err, or Internal if err has none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.code
	}
	return Internal
}
