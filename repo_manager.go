package users

import (
	"context"
	"database/sql"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes the user repository, both token ledgers, and the
// transaction boundary the workflows run in.
type RepositoryManager interface {
	Users() Users
	ConfirmationTokens() TokenLedger
	ResetTokens() TokenLedger
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Validate() error
	MustValidate()
}

type mngr struct {
	db            *bun.DB
	users         Users
	confirmations TokenLedger
	resets        TokenLedger
}

var _ RepositoryManager = (*mngr)(nil)

// ManagerOption configures a RepositoryManager.
type ManagerOption func(*mngr)

// WithTokenExpiry applies a TTL pattern (e.g. "24h") to both token ledgers.
func WithTokenExpiry(pattern string) ManagerOption {
	return func(m *mngr) {
		m.confirmations = NewTokenLedger(m.db, PurposeConfirmation, WithTokenTTL(pattern))
		m.resets = NewTokenLedger(m.db, PurposePasswordReset, WithTokenTTL(pattern))
	}
}

// NewRepositoryManager wires all repositories over one store handle. The
// handle is an explicit dependency: there is no ambient global connection.
func NewRepositoryManager(db *bun.DB, opts ...ManagerOption) RepositoryManager {
	m := &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		confirmations: NewTokenLedger(db, PurposeConfirmation),
		resets:        NewTokenLedger(db, PurposePasswordReset),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *mngr) Validate() error {
	if m.db == nil {
		return ErrNoStoreConnection
	}
	return nil
}

func (m *mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if m.db == nil {
		return ErrNoStoreConnection
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *mngr) Users() Users {
	return m.users
}

func (m *mngr) ConfirmationTokens() TokenLedger {
	return m.confirmations
}

func (m *mngr) ResetTokens() TokenLedger {
	return m.resets
}
