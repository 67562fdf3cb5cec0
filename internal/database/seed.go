package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const DemoEmail = "demo@quizbot.com"

type demoChat struct {
	title    string
	messages [][2]string // role, content
}

var demoChats = []demoChat{
	{
		title: "Getting Started with Python",
		messages: [][2]string{
			{RoleUser, "How do I start learning Python?"},
			{RoleAssistant, "Install Python from python.org, learn the basic syntax (variables, loops, functions), then practice with small projects."},
		},
	},
	{
		title: "React Hooks Explained",
		messages: [][2]string{
			{RoleUser, "What are React Hooks?"},
			{RoleAssistant, "Hooks are functions that let functional components use state and other React features. The most common are useState and useEffect."},
			{RoleUser, "Can you show me an example?"},
			{RoleAssistant, "function Counter() {\n  const [count, setCount] = useState(0);\n  return <button onClick={() => setCount(count + 1)}>{count}</button>;\n}"},
		},
	},
	{
		title: "SQL vs NoSQL Databases",
		messages: [][2]string{
			{RoleUser, "What's the difference between SQL and NoSQL databases?"},
			{RoleAssistant, "SQL databases are relational with fixed schemas and strong transactions. NoSQL databases trade structure for flexible schemas and horizontal scaling."},
		},
	},
}

// SeedDemo создаёт демо-пользователя с тремя чатами.
// Возвращает false, если демо-данные уже есть.
func (d *Database) SeedDemo(ctx context.Context, passwordHash string) (bool, error) {
	repos := d.Repositories()
	if _, err := repos.Users.GetByEmail(ctx, DemoEmail); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	err := d.Transaction(ctx, func(r *Repositories) error {
		user := &User{
			Name:         "Demo User",
			Email:        DemoEmail,
			PasswordHash: passwordHash,
			AvatarURL:    AvatarURL("Demo User"),
		}
		if err := r.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("создание демо-пользователя: %w", err)
		}

		base := time.Now().UTC()
		for i, dc := range demoChats {
			chatTime := base.Add(-time.Duration(i) * 24 * time.Hour)
			chat := &Chat{UserID: user.ID, Title: dc.title, CreatedAt: chatTime, UpdatedAt: chatTime}
			if err := r.Chats.Create(ctx, chat); err != nil {
				return fmt.Errorf("создание демо-чата: %w", err)
			}
			for j, m := range dc.messages {
				msg := &Message{
					ChatID:    chat.ID,
					Role:      m[0],
					Content:   m[1],
					CreatedAt: chatTime.Add(time.Duration(j*10) * time.Second),
				}
				if err := r.Messages.Create(ctx, msg); err != nil {
					return fmt.Errorf("создание демо-сообщения: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

type Stats struct {
	Users    int64
	Chats    int64
	Messages int64
}

func (d *Database) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	repos := d.Repositories()
	if s.Users, err = repos.Users.Count(ctx); err != nil {
		return s, err
	}
	if s.Chats, err = repos.Chats.Count(ctx); err != nil {
		return s, err
	}
	if s.Messages, err = repos.Messages.Count(ctx); err != nil {
		return s, err
	}
	return s, nil
}
