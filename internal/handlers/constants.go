package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrValidationFailed    = "Validation failed"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
	ErrUnknownTerm         = "Unknown term"
	ErrUnknownKind         = "Unknown column kind"
	ErrStudentNotFound     = "Student not found"
	ErrAlertsDisabled      = "Email alerts are not configured"
	ErrSectionNotFound     = "Section has no students"
	ErrInvalidBackup       = "Invalid backup file"
)
