package main

import (
	"newsbrief/cmd/handlers"
	"newsbrief/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
