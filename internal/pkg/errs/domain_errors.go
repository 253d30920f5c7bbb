package errs

import "errors"

// Domain-specific sentinel errors shared by usecase and job layers
var (
	// Transaction errors
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrTransactionNotPending = errors.New("transaction is not pending")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnknownChannel       = errors.New("unknown notification channel")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInactive      = errors.New("user account is inactive")
	ErrInvalidCredential = errors.New("invalid credentials")

	// Token errors
	ErrTokenRequired = errors.New("access token required")
	ErrTokenInvalid  = errors.New("invalid or expired token")

	// Concurrency errors
	ErrVersionConflict = errors.New("version conflict")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
