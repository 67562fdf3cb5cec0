package ui

import (
	"fmt"
	"io"
)

// PrintWelcome выводит приветствие
func PrintWelcome(w io.Writer) {
	fmt.Fprintln(w, ColorBold+IconRobot+" Quizbot admin console"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Просмотр пользователей, чатов и логов модели"+ColorReset)
	fmt.Fprintln(w)
	PrintHelp(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Совет:"+ColorReset+" "+ColorYellow+"seed"+ColorReset+" создаёт демо-пользователя с тремя чатами")
	fmt.Fprintln(w)
}

// PrintHelp выводит список доступных команд
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Доступные команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"stats"+ColorReset+"               - Количество пользователей, чатов и сообщений")
	fmt.Fprintln(w, "  "+ColorGreen+"users"+ColorReset+"               - Список пользователей")
	fmt.Fprintln(w, "  "+ColorGreen+"chats"+ColorReset+" <user_id>     - Чаты пользователя")
	fmt.Fprintln(w, "  "+ColorGreen+"show"+ColorReset+" <chat_id>      - История чата")
	fmt.Fprintln(w, "  "+ColorGreen+"logs"+ColorReset+" <chat_id|guest> - Логи запросов к модели")
	fmt.Fprintln(w, "  "+ColorGreen+"seed"+ColorReset+"                - Создать демо-данные")
	fmt.Fprintln(w, "  "+ColorGreen+"ask"+ColorReset+" <текст>         - Гостевой вопрос модели")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"               - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"                - Выход")
	fmt.Fprintln(w)
}
