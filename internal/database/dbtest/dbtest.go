// Package dbtest открывает изолированную in-memory SQLite для тестов других пакетов.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"quizbot/internal/database"
	"quizbot/internal/logger"

	"github.com/stretchr/testify/require"
)

func Open(t testing.TB) *database.Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger.Nop()) })
	return db
}
