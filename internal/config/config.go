package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultSystemPrompt = `You are a helpful AI assistant called Quizbot. Follow these rules strictly:
1. Be concise and direct in your responses
2. NEVER use asterisks (*) for emphasis or formatting
3. Use simple, clear language
4. Be friendly and accurate
5. Keep responses brief unless asked for details`

// DevJWTSecret ключ по умолчанию для локальной разработки. Вне ENV=dev запрещён.
const DevJWTSecret = "your-secret-key-change-this-in-production"

type Cfg struct {
	App        App
	Database   Database
	Logger     Logger
	OpenAI     OpenAI
	Chat       Chat
	Auth       Auth
	Redis      Redis
	RateLimit  RateLimit
	CORS       CORS
	Migrations Migrations
}

type App struct {
	Host string
	Port string
}

type Database struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SQLitePath string
}

// DSN строка подключения для gorm postgres драйвера.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// URL строка подключения для golang-migrate.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type OpenAI struct {
	KeyAI             string
	Model             string
	BaseURL           string
	MaxTokens         int
	Temperature       float32
	RequestsPerMinute int
	TokensPerHour     int
}

type Chat struct {
	SystemPrompt       string `yaml:"system_prompt"`
	MaxContextMessages int    `yaml:"max_context_messages"`
	GuestEnabled       bool   `yaml:"guest_enabled"`
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type RateLimit struct {
	PerMinute int
}

type CORS struct {
	Origins []string `yaml:"origins"`
}

// overlay поля, которые можно переопределить YAML-файлом из CONFIG_FILE.
type overlay struct {
	Chat *struct {
		SystemPrompt       *string `yaml:"system_prompt"`
		MaxContextMessages *int    `yaml:"max_context_messages"`
		GuestEnabled       *bool   `yaml:"guest_enabled"`
	} `yaml:"chat"`
	CORS *CORS `yaml:"cors"`
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		App: App{
			Host: env("APP_HOST", "0.0.0.0"),
			Port: env("APP_PORT", "8000"),
		},
		Database: Database{
			Driver:     env("DB_DRIVER", "postgres"),
			Host:       os.Getenv("DB_HOST"),
			Port:       env("DB_PORT", "5432"),
			Name:       os.Getenv("DB_NAME"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASS"),
			SQLitePath: env("SQLITE_PATH", "./quizbot.db"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAI{
			KeyAI:             os.Getenv("OPENAI_API_KEY"),
			Model:             env("OPENAI_MODEL", "gpt-4o"),
			BaseURL:           os.Getenv("OPENAI_BASE_URL"),
			MaxTokens:         envInt("MAX_TOKENS", 500),
			Temperature:       envFloat("TEMPERATURE", 0.7),
			RequestsPerMinute: envInt("OPENAI_RPM", 60),
			TokensPerHour:     envInt("OPENAI_TPH", 90000),
		},
		Chat: Chat{
			SystemPrompt:       env("SYSTEM_PROMPT", DefaultSystemPrompt),
			MaxContextMessages: envInt("MAX_CONTEXT_MESSAGES", 20),
			GuestEnabled:       envBoolDefault("GUEST_ENABLED", true),
		},
		Auth: Auth{
			JWTSecret: env("JWT_SECRET_KEY", DevJWTSecret),
			TokenTTL:  time.Duration(envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7)) * time.Minute,
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RateLimit: RateLimit{
			PerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		CORS: CORS{
			Origins: envList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Cfg) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение %s: %w", path, err)
	}
	return c.applyYAML(data)
}

func (c *Cfg) applyYAML(data []byte) error {
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("разбор YAML конфигурации: %w", err)
	}
	if o.Chat != nil {
		if o.Chat.SystemPrompt != nil {
			c.Chat.SystemPrompt = *o.Chat.SystemPrompt
		}
		if o.Chat.MaxContextMessages != nil {
			c.Chat.MaxContextMessages = *o.Chat.MaxContextMessages
		}
		if o.Chat.GuestEnabled != nil {
			c.Chat.GuestEnabled = *o.Chat.GuestEnabled
		}
	}
	if o.CORS != nil && len(o.CORS.Origins) > 0 {
		c.CORS.Origins = o.CORS.Origins
	}
	return nil
}

// Validate проверяет значения, с которыми сервис не сможет работать.
func (c *Cfg) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("неизвестный DB_DRIVER %q (ожидается postgres или sqlite)", c.Database.Driver)
	}
	if port, err := strconv.Atoi(c.App.Port); err != nil || port <= 0 {
		return fmt.Errorf("некорректный APP_PORT %q", c.App.Port)
	}
	if c.Chat.MaxContextMessages < 0 {
		return fmt.Errorf("MAX_CONTEXT_MESSAGES не может быть отрицательным")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY не задан")
	}
	if c.Logger.Env != "dev" && c.Auth.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET_KEY обязателен для ENV=%s", c.Logger.Env)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE должен быть положительным")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES должен быть положительным")
	}
	return nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envBoolDefault(key string, defaultValue bool) bool {
	if os.Getenv(key) == "" {
		return defaultValue
	}
	return envBool(key)
}

func envList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
