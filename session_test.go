package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLogin(t *testing.T) {
	ctx := context.Background()
	repo := users.NewUsersRepository(newTestDB(t))
	user := newTestUser(t, repo, "user@example.com", "secret123")

	session := users.NewSession(repo)
	assert.False(t, session.LoggedIn())

	tests := []struct {
		name          string
		email         string
		password      string
		confirmedOnly bool
		want          bool
	}{
		{
			name:     "Valid credentials",
			email:    "user@example.com",
			password: "secret123",
			want:     true,
		},
		{
			name:     "Unnormalized email still matches",
			email:    "  USER@example.com ",
			password: "secret123",
			want:     true,
		},
		{
			name:     "Wrong password",
			email:    "user@example.com",
			password: "nope",
			want:     false,
		},
		{
			name:     "Unknown email",
			email:    "other@example.com",
			password: "secret123",
			want:     false,
		},
		{
			name:          "Unconfirmed account with confirmedOnly",
			email:         "user@example.com",
			password:      "secret123",
			confirmedOnly: true,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session.Logout()

			ok, err := session.Login(ctx, tt.email, tt.password, tt.confirmedOnly)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, session.LoggedIn())

			if tt.want {
				require.NotNil(t, session.User())
				assert.Equal(t, user.ID, session.User().ID)
			} else {
				assert.Nil(t, session.User())
			}
		})
	}
}

func TestSessionConfirmedOnlyAfterConfirmation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := users.NewRepositoryManager(db)
	mailer := &fakeMailer{}

	user := newTestUser(t, repo.Users(), "user@example.com", "secret123")

	request := users.NewConfirmationRequestHandler(repo, mailer)
	require.NoError(t, request.Execute(ctx, users.ConfirmationRequestMessage{
		User:     user,
		Config:   users.EmailConfig{From: "noreply@example.com"},
		Template: tokenTemplate,
	}))

	raw := tokenFromBody(t, mailer.sent[0].HTMLBody)
	require.True(t, confirm(t, repo, user, raw))

	session := users.NewSession(repo.Users())
	ok, err := session.Login(ctx, "user@example.com", "secret123", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionResume(t *testing.T) {
	ctx := context.Background()
	repo := users.NewUsersRepository(newTestDB(t))
	user := newTestUser(t, repo, "user@example.com", "secret123")

	session := users.NewSession(repo)
	require.NoError(t, session.Resume(ctx, user.ID))
	assert.True(t, session.LoggedIn())

	// unknown identifier resumes to a logged-out session, not an error
	other := users.NewSession(repo)
	require.NoError(t, other.Resume(ctx, 999))
	assert.False(t, other.LoggedIn())
}
