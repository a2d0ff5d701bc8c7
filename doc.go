// Package users provides a minimal account core: user records, credential
// hashing, and the single-use token lifecycle that gates email confirmation
// and password resets.
//
// Token lifecycle:
//   - TokenLedger issues, verifies, and consumes tokens per Purpose
//     (confirmation vs password reset). Only a bcrypt hash of the token is
//     ever persisted; the raw value is returned once at issue time for
//     one-time transmission. An atomic upsert on the user_id unique key
//     guarantees at most one live token per user per purpose.
//   - Verification is side-effect free and idempotent. Consumption deletes
//     the record and happens inside the same store transaction as the state
//     change it authorizes, so a token can never be spent twice.
//
// Workflows:
//   - ConfirmationRequestHandler and PasswordResetRequestHandler issue a
//     token, render it into an email template, and send the mail inside one
//     transaction. A failed send rolls the token upsert back so no dangling
//     token outlives an email that was never delivered.
//   - ConfirmAccountHandler and FinalizePasswordResetHandler perform the
//     guarded transitions: flipping the confirmed flag and rewriting the
//     password hash, each consuming its token atomically.
//
// Negative outcomes (wrong password, wrong or absent token) are boolean
// results, not errors. Store and mail transport failures propagate as
// categorized errors from github.com/goliatone/go-errors.
package users
