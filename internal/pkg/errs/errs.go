package errs

import (
	"fmt"
	"strings"

	"aqimonitor/internal/pkg/logx"
)

// CustomError carries a business code, a client-facing message and the HTTP status it maps to.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a registered code.
// details fill printf placeholders in the message template; for ErrUnknown and
// ErrStoreUnavailable a leading error argument is logged instead of shown to the client.
// An unregistered code degrades to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	switch {
	case code == ErrUnknown || code == ErrStoreUnavailable:
		if len(details) > 0 {
			if originalErr, ok := details[0].(error); ok {
				logx.Error(originalErr, "Internal failure mapped to client error", "code", code)
			}
		}
	case len(details) > 0:
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error without placeholders. Details ignored.", "code", code)
		}
	case strings.Contains(customErr.Message, "%"):
		customErr.Message = errorMap[ErrInvalidParams].Message
	}

	return &customErr
}
