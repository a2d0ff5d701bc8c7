package users_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var testSchema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		fields TEXT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE confirmation_tokens (
		user_id INTEGER PRIMARY KEY,
		token_hash TEXT NOT NULL,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE password_reset_tokens (
		user_id INTEGER PRIMARY KEY,
		token_hash TEXT NOT NULL,
		created_at TIMESTAMP
	)`,
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, repo users.Users, email, password string) *users.User {
	t.Helper()

	hash, err := users.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Create(context.Background(), email, hash, nil, false)
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	return user
}

// fakeMailer captures outgoing messages and can simulate transport failure.
type fakeMailer struct {
	sent []users.Message
	fail error
}

func (m *fakeMailer) Send(_ context.Context, msg users.Message) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

// tokenTemplate renders to "<token>|<uid>" so tests can read the raw token
// back out of the captured email body.
const tokenTemplate = "%token%|%uid%"

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()

	parts := strings.SplitN(body, "|", 2)
	require.Len(t, parts, 2)
	require.NotEmpty(t, parts[0])

	return parts[0]
}
