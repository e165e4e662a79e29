package validation

import (
	"errors"
	"unicode"
)

// MinPasswordLength минимальная длина пароля.
const MinPasswordLength = 8

// ValidatePassword проверяет пароль на соответствие требованиям безопасности:
// длина от 8 символов, заглавная и строчная буква, цифра.
func ValidatePassword(value interface{}) error {
	password, _ := value.(string)
	if len([]rune(password)) < MinPasswordLength {
		return errors.New("пароль должен быть не менее 8 символов")
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
		return errors.New("пароль должен содержать хотя бы одну заглавную букву")
	}
	if !hasLower {
		return errors.New("пароль должен содержать хотя бы одну строчную букву")
	}
	if !hasNumber {
		return errors.New("пароль должен содержать хотя бы одну цифру")
	}

	return nil
}
