package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds shared across layers. Callers match them with Is.
var (
	ErrNotFound      = stderrors.New("resource not found")
	ErrForbidden     = stderrors.New("resource belongs to another user")
	ErrUnauthorized  = stderrors.New("unauthorized")
	ErrInvalidInput  = stderrors.New("invalid input")
	ErrConfiguration = stderrors.New("component is misconfigured")
	ErrUnknownField  = stderrors.New("unknown or immutable field")
	ErrValidatorUsed = stderrors.New("validator already used")
	ErrStore         = stderrors.New("secret store failure")
)

// CustomizedError carries the call trace, an i18n message key and the http status to answer with.
type CustomizedError struct {
	cause   error
	message string
	trace   []string
	code    int
	data    map[string]any
}

func (e *CustomizedError) WithData(data map[string]any) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) Data() map[string]any {
	return e.data
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

// New starts an error chain. The status code follows the kind of err when it is one of the sentinels.
func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    codeOf(err),
	}
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    codeOf(err),
	}
	var income *CustomizedError
	if stderrors.As(err, &income) {
		ce.code = income.code
		ce.data = income.data
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	var ce *CustomizedError
	if stderrors.As(err, &ce) {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, "")
}

// Message returns the i18n key of the error, or the closest wrapped one.
func (e *CustomizedError) Message() string {
	if e.message != "" {
		return e.message
	}
	var inner *CustomizedError
	if stderrors.As(e.cause, &inner) {
		return inner.Message()
	}
	return ""
}

func (e *CustomizedError) Unwrap() error {
	return e.cause
}

func (e *CustomizedError) Error() string {
	cause := `""`
	if e.cause != nil {
		cause = fmt.Sprintf("%q", e.cause.Error())
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"msg":"%s","error":%s}`, strings.Join(e.trace, "->"), e.code, e.message, cause)
}

func codeOf(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrInvalidInput), stderrors.Is(err, ErrUnknownField):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Is, As and Join mirror the standard library so callers only import this package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
