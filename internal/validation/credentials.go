package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// IdentifierPattern определяет допустимый формат identifier
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 3-32 символа. Только ASCII, поэтому сравнение без учета регистра
// одинаково работает в SQLite (NOCASE) и PostgreSQL (lower()).
var IdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinIdentifierLen минимальная длина identifier
	MinIdentifierLen = 3
	// MaxIdentifierLen максимальная длина identifier
	MaxIdentifierLen = 32

	// MinSecretLen минимальная длина пароля в символах
	MinSecretLen = 8
	// MaxSecretLen максимальная длина пароля в байтах (ограничение bcrypt)
	MaxSecretLen = 72
)

// ValidateIdentifier проверяет, что identifier соответствует требованиям
func ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(identifier) < MinIdentifierLen {
		return fmt.Errorf("identifier must be at least %d characters long", MinIdentifierLen)
	}

	if len(identifier) > MaxIdentifierLen {
		return fmt.Errorf("identifier must not exceed %d characters", MaxIdentifierLen)
	}

	if !IdentifierPattern.MatchString(identifier) {
		return fmt.Errorf("identifier can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidateSecret проверяет минимальные требования к паролю
// Минимум 8 символов, максимум 72 байта
func ValidateSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if utf8.RuneCountInString(secret) < MinSecretLen {
		return fmt.Errorf("secret must be at least %d characters long", MinSecretLen)
	}

	if len(secret) > MaxSecretLen {
		return fmt.Errorf("secret must not exceed %d bytes", MaxSecretLen)
	}

	return nil
}

// ValidateLoginIdentifier проверяет identifier при входе: только наличие и длину.
// Формат не проверяется, неподходящий identifier просто не найдется.
func ValidateLoginIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(identifier) > MaxIdentifierLen {
		return fmt.Errorf("identifier must not exceed %d characters", MaxIdentifierLen)
	}
	return nil
}

// ValidateLoginSecret проверяет пароль при входе: только наличие и лимит bcrypt.
// Минимальная длина относится к регистрации.
func ValidateLoginSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}
	if len(secret) > MaxSecretLen {
		return fmt.Errorf("secret must not exceed %d bytes", MaxSecretLen)
	}
	return nil
}
