package validation

import (
	"fmt"
	"unicode"
)

// MaxPasswordBytes предел bcrypt: байты после 72-го не участвуют в хеше.
const MaxPasswordBytes = 72

// ValidatePassword проверяет пароль на соответствие требованиям безопасности:
// от 8 символов, заглавная и строчная буква, цифра.
func ValidatePassword(password string) error {
	if len([]rune(password)) < 8 {
		return fmt.Errorf("пароль должен быть не менее 8 символов")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("пароль не может быть длиннее %d байт", MaxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("пароль должен содержать хотя бы одну заглавную букву")
	}
	if !hasLower {
		return fmt.Errorf("пароль должен содержать хотя бы одну строчную букву")
	}
	if !hasNumber {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}

	return nil
}
