package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizbot/internal/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := dbtest.Open(t)
	return NewService(db.Repositories().Users, NewTokens("test-secret", time.Hour), zap.NewNop())
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.True(t, CheckPassword(hash, "Secret123"))
	assert.False(t, CheckPassword(hash, "secret123"))
}

func TestPassword_LongerThan72Bytes(t *testing.T) {
	long := strings.Repeat("a", 72)
	hash, err := HashPassword(long + "tail")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, long+"other"))
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	raw, err := tokens.Issue(42)
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Issue(1)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_RegisterLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	session, err := s.Register(ctx, "Анна", " Anna@Example.com ", "Secret123")
	require.NoError(t, err)
	assert.NotZero(t, session.User.ID)
	assert.Equal(t, "anna@example.com", session.User.Email)
	assert.Contains(t, session.User.AvatarURL, "ui-avatars.com")
	assert.NotEmpty(t, session.Token)

	_, err = s.Register(ctx, "Другая", "anna@example.com", "Secret123")
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := s.Login(ctx, "ANNA@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = s.Login(ctx, "anna@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := s.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestService(t)
	session, err := s.Register(context.Background(), "Test", "t@example.com", "Secret123")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", s.RequireUser(), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"не bearer", "Basic abc", http.StatusUnauthorized},
		{"плохой токен", "Bearer nope", http.StatusUnauthorized},
		{"валидный", "Bearer " + session.Token, http.StatusOK},
		{"регистр схемы", "bearer " + session.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
