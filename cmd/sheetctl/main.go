package main

import (
	"github.com/JonMunkholm/sheetjson/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; real environment variables win over it.
	_ = godotenv.Load()
	cli.Execute()
}
