package users

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the identity record. The store assigns the surrogate key and the
// timestamps on creation; email is normalized before any lookup or write.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Confirmed     bool       `bun:"confirmed" json:"confirmed"`
	Fields        Fields     `bun:"fields" json:"fields,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Field returns a custom field value by key.
func (u *User) Field(key string) (any, bool) {
	if u.Fields == nil {
		return nil, false
	}
	v, ok := u.Fields[key]
	return v, ok
}

// SetField sets a custom field value. Validation happens when the record is
// persisted, not here.
func (u *User) SetField(key string, value any) *User {
	if u.Fields == nil {
		u.Fields = make(Fields)
	}
	u.Fields[key] = value
	return u
}

// TokenRecord is one live action token: the bcrypt hash of a raw token,
// keyed by user. The raw value is never persisted. Each Purpose maps the
// record onto its own relation, both sharing this shape.
type TokenRecord struct {
	bun.BaseModel `bun:"table:confirmation_tokens,alias:tok"`
	UserID        int64     `bun:"user_id,pk" json:"user_id"`
	TokenHash     string    `bun:"token_hash,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
