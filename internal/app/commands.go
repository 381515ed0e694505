package app

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotCommands — меню команд, которое бот регистрирует у Telegram при старте.
func BotCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Запуск бота"},
		{Command: "addhw", Description: "добавить домашку"},
		{Command: "viewhw", Description: "посмотреть домашку"},
		{Command: "editschedule", Description: "изменить расписание"},
		{Command: "viewschedule", Description: "посмотреть расписание"},
		{Command: "menu", Description: "информация о пользователе"},
		{Command: "donate", Description: "поддержать проект"},
	}
}
