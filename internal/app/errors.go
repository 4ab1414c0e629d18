package app

import (
	"database/sql"
	"errors"
	"fmt"

	"inkwell/api/internal/auth"
	"inkwell/api/internal/authpw"
	"inkwell/api/internal/export"
	"inkwell/api/internal/store"
	"inkwell/api/internal/upload"
	"inkwell/api/internal/validation"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// mapError translates service errors into an HTTP status, a stable
// error code, a message and optional details.
func mapError(err error) (int, string, string, any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var fieldErrs *validation.Errors
	if errors.As(err, &fieldErrs) {
		return 400, "VALIDATION_ERROR", "request validation failed", fieldErrs.Fields
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 404, "NOT_FOUND", "resource not found", nil
	case errors.Is(err, store.ErrDuplicateName):
		return 400, "DUPLICATE_NAME", "a folder with this name already exists", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return 401, "UNAUTHORIZED", "invalid or expired token", nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return 401, "INVALID_CREDENTIALS", "invalid email or password", nil
	case errors.Is(err, authpw.ErrEmailTaken):
		return 409, "EMAIL_TAKEN", "email already registered", nil
	case errors.Is(err, authpw.ErrUnknownProvider):
		return 400, "UNKNOWN_PROVIDER", "sign-in provider is not supported", nil
	case errors.Is(err, upload.ErrTooLarge):
		return 400, "FILE_TOO_LARGE", "image exceeds the size limit", nil
	case errors.Is(err, upload.ErrUnsupportedType):
		return 400, "UNSUPPORTED_TYPE", "unsupported image type", nil
	case errors.Is(err, upload.ErrNotConfigured):
		return 503, "UPLOADS_DISABLED", "image uploads are not configured", nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return 400, "UNSUPPORTED_FORMAT", "export format must be pdf or docx", nil
	case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
		return 503, "EXPORT_UNAVAILABLE", "export is not available", nil
	}
	return 500, "SERVER_ERROR", "internal server error", nil
}
