package models

import (
	"time"

	"github.com/iudanet/gamelib/pkg/api"
)

// User представляет учетную запись (credential) пользователя на сервере
type User struct {
	CreatedAt  time.Time  `json:"created_at"`           // время создания
	LastLogin  *time.Time `json:"last_login,omitempty"` // время последнего входа
	ID         string     `json:"id"`                   // UUID пользователя
	Identifier string     `json:"identifier"`           // уникальный identifier, без учета регистра
	SecretHash string     `json:"-"`                    // bcrypt/argon2id хеш пароля, никогда не сериализуется
}

// Summary возвращает публичное представление пользователя
func (u *User) Summary() api.UserSummary {
	return api.UserSummary{
		ID:         u.ID,
		Identifier: u.Identifier,
	}
}
