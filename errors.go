package users

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrNoStoreConnection is returned when a repository or workflow is used
// without a backing store handle.
var ErrNoStoreConnection = errors.New("no store connection available", errors.CategoryOperation).
	WithTextCode("NO_STORE_CONNECTION")

// ErrTokenGeneration is returned when the random generator or the token
// hasher fails. The operation is aborted, never degraded to a weaker token.
var ErrTokenGeneration = errors.New("failed to generate action token", errors.CategoryInternal).
	WithTextCode("TOKEN_GENERATION_ERROR")

// ErrDuplicateEmail is returned when a create violates the unique email
// constraint.
var ErrDuplicateEmail = errors.New("email address already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL")

// ErrInvalidFieldKey is returned when a custom field key fails the [a-z_]+
// pattern on the create path.
var ErrInvalidFieldKey = errors.New("malformed custom field key", errors.CategoryValidation).
	WithTextCode("INVALID_FIELD_KEY")

// ErrInvalidFieldValue is returned when a custom field value is not one of
// the supported scalar types.
var ErrInvalidFieldValue = errors.New("unsupported custom field value", errors.CategoryValidation).
	WithTextCode("INVALID_FIELD_VALUE")

// ErrNoSenderAddress is returned when an email workflow runs with an empty
// From address.
var ErrNoSenderAddress = errors.New("no sender address configured", errors.CategoryValidation).
	WithTextCode("NO_SENDER_ADDRESS")

// ErrEmailSending is returned when the mail transport fails. The enclosing
// transaction is rolled back so the issued token does not outlive the email.
var ErrEmailSending = errors.New("email sending failed", errors.CategoryOperation).
	WithTextCode("EMAIL_SENDING_ERROR")

// ErrUpdateAnomaly is returned when a store update affects an unexpected
// number of rows.
var ErrUpdateAnomaly = errors.New("store update affected unexpected row count", errors.CategoryInternal).
	WithTextCode("UPDATE_ANOMALY")

// ErrStore is the catch-all for unexpected query failures.
var ErrStore = errors.New("unexpected store error", errors.CategoryInternal).
	WithTextCode("STORE_ERROR")

// ErrMismatchedHashAndPassword is returned when a cleartext value does not
// match its stored hash.
var ErrMismatchedHashAndPassword = errors.New("hash and cleartext value do not match", errors.CategoryAuth).
	WithTextCode("CREDENTIAL_MISMATCH")

// ErrNoEmptyString rejects empty input to the hashing functions.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_VALUE")

// hasTextCode reports whether err carries the given rich-error text code
// anywhere in its chain.
func hasTextCode(err error, code string) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsEmailSendingError checks for mail transport failures.
func IsEmailSendingError(err error) bool {
	return hasTextCode(err, ErrEmailSending.TextCode)
}

// IsUpdateAnomalyError checks for unexpected affected-row counts.
func IsUpdateAnomalyError(err error) bool {
	return hasTextCode(err, ErrUpdateAnomaly.TextCode)
}

// IsDuplicateEmailError checks for unique email violations.
func IsDuplicateEmailError(err error) bool {
	return hasTextCode(err, ErrDuplicateEmail.TextCode)
}

// isUniqueViolation checks driver error messages for unique constraint
// failures. Covers sqlite, postgres and mysql wording.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
