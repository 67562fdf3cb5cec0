package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatRole возвращает иконку, цвет и подпись для роли сообщения
func FormatRole(role string) (icon, color, text string) {
	switch role {
	case "user":
		return IconUser, ColorGreen, "пользователь"
	case "assistant":
		return IconRobot, ColorCyan, "ассистент"
	case "system":
		return IconGear, ColorYellow, "система"
	default:
		return IconChat, ColorGray, role
	}
}

// Shorten обрезает текст до n символов и схлопывает переводы строк
func Shorten(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "…"
}

// ClearScreen очищает терминал
func ClearScreen() {
	fmt.Print("\033[H\033[2J")
}
