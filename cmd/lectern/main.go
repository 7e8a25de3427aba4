package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// API keys conventionally live in a .env next to the binary
	_ = godotenv.Load()

	root := &cobra.Command{Use: "lectern", Short: "Course materials Q&A service"}
	root.AddCommand(serveCMD(), ingestCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
