package main

import (
	"rustbot/bot"
	"rustbot/handlers"
)

func main() {
	bot.Run(handlers.Register)
}
