package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/cramblehq/cramble/cmd"
)

func main() {
	// Load .env if present. API keys may come from the environment instead.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
