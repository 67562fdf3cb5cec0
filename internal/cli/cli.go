// Package cli консоль администратора: статистика, пользователи, чаты и логи модели.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"quizbot/internal/chat"
	"quizbot/internal/cli/commands"
	"quizbot/internal/cli/ui"
	"quizbot/internal/database"
	"quizbot/internal/logger"

	"github.com/chzyer/readline"
)

type CLI struct {
	log          *logger.Zap
	out          io.Writer
	rl           *readline.Instance
	stdin        *bufio.Reader
	adminHandler *commands.AdminHandler
	chatsHandler *commands.ChatsHandler
	logsHandler  *commands.LogsHandler
	askHandler   *commands.AskHandler
}

func New(db *database.Database, chats *chat.Service, log *logger.Zap) *CLI {
	cli := newWithOutput(db, chats, log, os.Stdout)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ui.ColorCyan + "quizbot> " + ui.ColorReset,
		HistoryFile:     ".quizbot-history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Warn("Не удалось инициализировать readline, будет использован fallback режим")
	} else {
		cli.rl = rl
	}

	return cli
}

func newWithOutput(db *database.Database, chats *chat.Service, log *logger.Zap, out io.Writer) *CLI {
	repos := db.Repositories()
	return &CLI{
		log:          log,
		out:          out,
		adminHandler: commands.NewAdminHandler(db, log.Logger, out),
		chatsHandler: commands.NewChatsHandler(repos, log.Logger, out),
		logsHandler:  commands.NewLogsHandler(repos, log.Logger, out),
		askHandler:   commands.NewAskHandler(chats, out),
	}
}

func (c *CLI) readLine() (string, error) {
	if c.rl != nil {
		return c.rl.Readline()
	}
	// Fallback для работы без readline
	if c.stdin == nil {
		c.stdin = bufio.NewReader(os.Stdin)
	}
	fmt.Fprint(c.out, "quizbot> ")
	line, err := c.stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *CLI) closeReadline() {
	if c.rl != nil {
		c.rl.Close()
	}
}

func (c *CLI) Run(ctx context.Context) {
	ui.PrintWelcome(c.out)
	defer c.closeReadline()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\n"+ui.ColorCyan+ui.IconWave+" Получен сигнал завершения..."+ui.ColorReset)
			return
		default:
		}

		line, err := c.readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !c.handleCommand(ctx, line) {
			return
		}
	}
}

// handleCommand выполняет команду; false означает выход из консоли.
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch {
	case cmd == "exit" || cmd == "quit":
		fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
		return false

	case cmd == "clear":
		ui.ClearScreen()

	case cmd == "stats":
		c.adminHandler.Stats(ctx)

	case cmd == "users":
		c.adminHandler.Users(ctx)

	case cmd == "seed":
		c.adminHandler.Seed(ctx)

	case cmd == "chats" && arg != "":
		c.chatsHandler.List(ctx, arg)

	case cmd == "show" && arg != "":
		c.chatsHandler.Show(ctx, arg)

	case cmd == "logs" && arg != "":
		c.logsHandler.Show(ctx, arg)

	case cmd == "ask" && arg != "":
		c.askHandler.Ask(ctx, arg)

	default:
		ui.PrintHelp(c.out)
	}
	return true
}
