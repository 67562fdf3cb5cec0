package database

import (
	"context"
	"fmt"

	"quizbot/internal/config"
	"quizbot/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Database struct {
	DB *gorm.DB
}

// New подключается к базе, указанной в конфигурации.
func New(cfg *config.Cfg, log *logger.Zap) (*Database, error) {
	if cfg.Database.Driver == "sqlite" {
		return OpenSQLite(cfg.Database.SQLitePath, log)
	}
	return open(postgres.Open(cfg.Database.DSN()), log, false)
}

// OpenSQLite открывает SQLite и создаёт схему через AutoMigrate.
// Поддерживает in-memory базы ("file:name?mode=memory&cache=shared").
func OpenSQLite(path string, log *logger.Zap) (*Database, error) {
	return open(sqlite.Open(path), log, true)
}

func open(dialector gorm.Dialector, log *logger.Zap, autoMigrate bool) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log.Logger),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("подключение к БД: %w", err)
	}

	if autoMigrate {
		if err := db.AutoMigrate(&User{}, &Chat{}, &Message{}, &LlmLog{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	log.Info("Подключение к БД установлено", zap.String("dialect", dialector.Name()))
	return &Database{DB: db}, nil
}

func (d *Database) Close(log *logger.Zap) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		log.Error("Ошибка получения соединения БД", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("Ошибка закрытия БД", zap.Error(err))
	}
}

// Ping проверяет соединение, используется в /health.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Repositories набор репозиториев поверх одного соединения или транзакции.
type Repositories struct {
	Users    *UserRepository
	Chats    *ChatRepository
	Messages *MessageRepository
	LLMLogs  *LLMLogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Chats:    NewChatRepository(db),
		Messages: NewMessageRepository(db),
		LLMLogs:  NewLLMLogRepository(db),
	}
}

func (d *Database) Repositories() *Repositories {
	return NewRepositories(d.DB)
}

// Transaction выполняет fn в транзакции. Ошибка fn откатывает все изменения.
func (d *Database) Transaction(ctx context.Context, fn func(r *Repositories) error) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
