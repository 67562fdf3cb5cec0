package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"user@example.com", true},
		{"first.last+tag@mail.co.uk", true},
		{"", false},
		{"user", false},
		{"user@localhost", false},
		{"Name <user@example.com>", false},
		{"@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := Email(tt.email)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidEmail)
			}
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	assert.NoError(t, PasswordStrength("Secret123"))
	assert.NoError(t, PasswordStrength("Пароль123"))
	assert.Error(t, PasswordStrength("Sec123"))
	assert.Error(t, PasswordStrength("secret123"))
	assert.Error(t, PasswordStrength("SECRET123"))
	assert.Error(t, PasswordStrength("SecretSecret"))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "abc", SanitizeInput("  a\x00bc \n"))
	assert.Equal(t, "", SanitizeInput("   "))

	long := strings.Repeat("я", MaxInputLength+50)
	assert.Equal(t, MaxInputLength, len([]rune(SanitizeInput(long))))
}

func TestChatTitle(t *testing.T) {
	title, err := ChatTitle("  Викторина  ")
	require.NoError(t, err)
	assert.Equal(t, "Викторина", title)

	_, err = ChatTitle(" \x00 ")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = ChatTitle(strings.Repeat("ж", MaxTitleLength+1))
	assert.ErrorIs(t, err, ErrLongTitle)

	_, err = ChatTitle(strings.Repeat("ж", MaxTitleLength))
	assert.NoError(t, err)
}
