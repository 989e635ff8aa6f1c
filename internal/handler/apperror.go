package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken          = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken          = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden             = &AppError{http.StatusForbidden, "FORBIDDEN", "Your role does not permit this action"}
	ErrInvalidRequest        = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed      = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound      = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError         = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrInvalidIdempotencyKey = &AppError{http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key must be at most 128 characters"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still in progress"}

	ErrInvalidAmount          = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive with at most two decimal places"}
	ErrUnsupportedType        = &AppError{http.StatusBadRequest, "UNSUPPORTED_TRANSACTION_TYPE", "Service type and direction combination is not supported"}
	ErrAccountNotFound        = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrAccountInactive        = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_INACTIVE", "Account is inactive"}
	ErrInsufficientBalance    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient balance"}
	ErrGLMappingNotConfigured = &AppError{http.StatusUnprocessableEntity, "GL_MAPPING_NOT_CONFIGURED", "General ledger mapping is not configured for this account"}
	ErrInvalidStateTransition = &AppError{http.StatusConflict, "INVALID_STATE_TRANSITION", "Operation not allowed in the current state"}
	ErrConcurrencyConflict    = &AppError{http.StatusServiceUnavailable, "CONCURRENCY_CONFLICT", "The ledger is busy, please retry"}
	ErrDuplicateReference     = &AppError{http.StatusConflict, "DUPLICATE_REFERENCE", "Transaction reference already exists"}
	ErrMappingExists          = &AppError{http.StatusConflict, "MAPPING_EXISTS", "An active mapping of this type already exists"}
	ErrCashTillExists         = &AppError{http.StatusConflict, "CASH_TILL_EXISTS", "Branch already has an active cash till"}
	ErrLedgerInvariant        = &AppError{http.StatusInternalServerError, "LEDGER_INVARIANT", "Posting rejected by ledger consistency check"}
)
