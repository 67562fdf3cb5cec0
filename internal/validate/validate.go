// Package validate проверяет и нормализует пользовательский ввод.
package validate

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxInputLength = 10000
	MaxTitleLength = 200
	MinPassword    = 8
)

var (
	ErrInvalidEmail = errors.New("некорректный email")
	ErrWeakPassword = errors.New("пароль должен быть не короче 8 символов и содержать заглавную букву, строчную букву и цифру")
	ErrEmptyTitle   = errors.New("заголовок не может быть пустым")
	ErrLongTitle    = errors.New("заголовок длиннее 200 символов")
)

func Email(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

func PasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPassword {
		return ErrWeakPassword
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return ErrWeakPassword
	}
	return nil
}

// SanitizeInput убирает NUL-символы, обрезает до MaxInputLength символов и пробелы по краям.
func SanitizeInput(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	if utf8.RuneCountInString(text) > MaxInputLength {
		text = string([]rune(text)[:MaxInputLength])
	}
	return strings.TrimSpace(text)
}

// ChatTitle возвращает очищенный заголовок.
func ChatTitle(title string) (string, error) {
	title = SanitizeInput(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrLongTitle
	}
	return title, nil
}
