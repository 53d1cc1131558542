package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Local development convenience; absence of a .env file is normal.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
