// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Nickname            string     `db:"nickname"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	Avatar              string     `db:"avatar"`
	ResetPasswordToken  *string    `db:"reset_password_token"`
	ResetPasswordExpire *time.Time `db:"reset_password_expire"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`

	Followers []string `db:"-"`
}

func (u *User) HasAvatar(defaultAvatar string) bool {
	return u.Avatar != "" && u.Avatar != defaultAvatar
}
